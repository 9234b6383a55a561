package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/ingestion"
	"github.com/poiesic/probe/reembed"
	"github.com/urfave/cli/v2"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Load text, markdown or PDF files into a dataset",
		ArgsUsage: "FILE...",
		Action:    ingestAction,
		Flags: []cli.Flag{
			datasetFlag(),
			&cli.StringFlag{Name: "user", Usage: "User recorded as segment creator", Value: "cli"},
			&cli.IntFlag{Name: "pool-size", Usage: "Embedding workers (defaults to config)"},
		},
	}
}

func ingestAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	dataset, err := loadDataset(c.Context, db, c.Uint64("dataset"))
	if err != nil {
		return err
	}

	opts := []ingestion.Option{
		ingestion.WithChunker(ingestion.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)),
		ingestion.WithRetry(cfg.Ingestion.MaxRetries, cfg.Ingestion.RetryDelay()),
	}
	poolSize := cfg.Ingestion.PoolSize
	if c.IsSet("pool-size") {
		poolSize = c.Int("pool-size")
	}
	if poolSize > 0 {
		opts = append(opts, ingestion.WithPoolSize(poolSize))
	}

	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	var ids []core.ID
	for _, path := range c.Args().Slice() {
		text, err := ingestion.LoadFile(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		doc, err := pipeline.Ingest(c.Context, dataset, filepath.Base(path), text, &ingestion.IngestOptions{UserID: c.String("user")})
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		ids = append(ids, doc.Id)
	}

	fmt.Fprintf(os.Stderr, "Waiting for %d documents to be indexed...\n", len(ids))
	pipeline.Wait()

	failed := 0
	for _, id := range ids {
		doc, err := db.DocumentRepository().GetDocument(c.Context, id)
		if err != nil {
			return err
		}
		if doc.IndexingStatus == core.StatusCompleted {
			color.New(color.FgGreen).Fprintf(c.App.Writer, "%-9s", "indexed")
			fmt.Fprintf(c.App.Writer, " %s (document %d)\n", doc.Name, doc.Id)
			continue
		}
		failed++
		color.New(color.FgRed).Fprintf(c.App.Writer, "%-9s", "failed")
		fmt.Fprintf(c.App.Writer, " %s (document %d): %s\n", doc.Name, doc.Id, doc.Error)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to index", failed, len(ids))
	}
	return nil
}

func queriesCommand() *cli.Command {
	return &cli.Command{
		Name:   "queries",
		Usage:  "Show recent queries against a dataset",
		Action: queriesAction,
		Flags: []cli.Flag{
			datasetFlag(),
			&cli.IntFlag{Name: "limit", Usage: "Number of queries to show", Value: 20},
		},
	}
}

func queriesAction(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.QueryLogRepository().GetQueryLogs(c.Context, core.ID(c.Uint64("dataset")), c.Int("limit"))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.App.Writer, "No queries")
		return nil
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tACCOUNT\tQUERY")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", entry.InsertedAt.Local().Format(time.DateTime), entry.Source, entry.CreatedBy, entry.Content)
	}
	return w.Flush()
}

func reembedCommand() *cli.Command {
	return &cli.Command{
		Name:   "reembed",
		Usage:  "Recompute the embeddings of every segment in a dataset",
		Action: reembedAction,
		Flags: []cli.Flag{
			datasetFlag(),
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of segments to process in each batch (defaults to config)",
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N segments",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum retry attempts for failed operations (defaults to config)",
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff (defaults to config)",
			},
		},
	}
}

func reembedAction(c *cli.Context) error {
	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	reembedConfig := &reembed.Config{
		BatchSize:      cfg.Reembed.BatchSize,
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     cfg.Reembed.MaxRetries,
		RetryDelay:     cfg.Reembed.RetryDelay(),
	}
	if c.IsSet("batch-size") {
		reembedConfig.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("max-retries") {
		reembedConfig.MaxRetries = c.Int("max-retries")
	}
	if c.IsSet("retry-delay") {
		reembedConfig.RetryDelay = c.Duration("retry-delay")
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	dataset, err := loadDataset(c.Context, db, c.Uint64("dataset"))
	if err != nil {
		return err
	}

	reembedder, err := db.NewReembedder(c.Context, dataset, reembedConfig, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Database.Path)
	fmt.Fprintf(os.Stderr, "Dataset: %s (%d)\n", dataset.Name, dataset.Id)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", dataset.EmbeddingModelRef())
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(c.Context, dataset.Id); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/poiesic/probe/core"
	"github.com/urfave/cli/v2"
)

func datasetCommand() *cli.Command {
	return &cli.Command{
		Name:  "dataset",
		Usage: "Manage datasets",
		Subcommands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Create a dataset",
				Action: datasetCreate,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Dataset name", Required: true},
					&cli.StringFlag{Name: "tenant", Usage: "Owning tenant", Value: "default"},
					&cli.StringFlag{Name: "technique", Usage: "Indexing technique (high_quality, economy)", Value: string(core.IndexingHighQuality)},
					&cli.StringFlag{Name: "provider", Usage: "Embedding provider (defaults to openai)"},
					&cli.StringFlag{Name: "model", Usage: "Embedding model (defaults to the configured model)"},
					&cli.StringFlag{Name: "method", Usage: "Saved search method (semantic_search, full_text_search, hybrid_search)"},
					&cli.IntFlag{Name: "top-k", Usage: "Saved number of results", Value: 2},
				},
			},
			{
				Name:   "list",
				Usage:  "List datasets",
				Action: datasetList,
			},
			{
				Name:   "show",
				Usage:  "Show a dataset and its document counts",
				Action: datasetShow,
				Flags:  []cli.Flag{datasetFlag()},
			},
		},
	}
}

func datasetCreate(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	dataset := &core.Dataset{
		TenantID:          c.String("tenant"),
		Name:              c.String("name"),
		IndexingTechnique: core.IndexingTechnique(c.String("technique")),
		EmbeddingProvider: c.String("provider"),
		EmbeddingModel:    c.String("model"),
	}
	if method := c.String("method"); method != "" {
		dataset.RetrievalConfig = &core.RetrievalConfig{
			SearchMethod: core.SearchMethod(method),
			TopK:         c.Int("top-k"),
		}
		if err := core.ValidateRetrievalConfig(dataset.RetrievalConfig); err != nil {
			return err
		}
	}

	created, err := db.CreateDataset(c.Context, dataset)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	color.New(color.FgGreen).Fprintf(c.App.Writer, "Created dataset %d", created.Id)
	fmt.Fprintf(c.App.Writer, " (%s, embedded with %s)\n", created.Name, created.EmbeddingModelRef())
	return nil
}

func datasetList(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	datasets, err := db.DatasetRepository().ListDatasets(c.Context)
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		fmt.Fprintln(c.App.Writer, "No datasets")
		return nil
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTENANT\tNAME\tTECHNIQUE\tMODEL")
	for _, d := range datasets {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", d.Id, d.TenantID, d.Name, d.IndexingTechnique, d.EmbeddingModelRef())
	}
	return w.Flush()
}

func datasetShow(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	dataset, err := loadDataset(c.Context, db, c.Uint64("dataset"))
	if err != nil {
		return err
	}
	documents, err := db.DocumentRepository().CountAvailableDocuments(c.Context, dataset.Id)
	if err != nil {
		return err
	}
	segments, err := db.SegmentRepository().CountAvailableSegments(c.Context, dataset.Id)
	if err != nil {
		return err
	}

	out := c.App.Writer
	bold := color.New(color.Bold)
	bold.Fprintf(out, "%s\n", dataset.Name)
	fmt.Fprintf(out, "  id:         %d\n", dataset.Id)
	fmt.Fprintf(out, "  tenant:     %s\n", dataset.TenantID)
	fmt.Fprintf(out, "  technique:  %s\n", dataset.IndexingTechnique)
	fmt.Fprintf(out, "  embedding:  %s\n", dataset.EmbeddingModelRef())
	fmt.Fprintf(out, "  documents:  %d available\n", documents)
	fmt.Fprintf(out, "  segments:   %d available\n", segments)
	if cfg := dataset.RetrievalConfig; cfg != nil {
		fmt.Fprintf(out, "  retrieval:  %s, top %d\n", cfg.SearchMethod, cfg.TopK)
	} else {
		fmt.Fprintln(out, "  retrieval:  defaults")
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/probe"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/ingestion"
	"github.com/urfave/cli/v2"
)

// Built-in seed corpus, one document per entry.
var documents = map[string][]string{
	"lighthouses.txt": {
		"The lighthouse keeper climbed the spiral stairs every evening at dusk.",
		"A rotating lens focused the lamp into a single sweeping beam.",
		"Ships counted the seconds between flashes to identify the coast.",
		"Fog horns took over when the beam could not cut through the mist.",
		"Most lighthouses were automated during the second half of the century.",
		"Some towers now serve as museums and guest houses.",
	},
	"sourdough.txt": {
		"A sourdough starter is a culture of wild yeast and lactic acid bacteria.",
		"Feeding the starter with flour and water keeps the culture active.",
		"Long fermentation gives the bread its sour flavor and open crumb.",
		"Bakers score the dough so it expands evenly in the oven.",
		"A hot dutch oven traps steam and produces a crisp crust.",
		"Cooling the loaf completely before slicing keeps the crumb from turning gummy.",
	},
	"backups.txt": {
		"A backup that has never been restored is only a hope.",
		"Keep at least three copies of important data on two kinds of media.",
		"One copy should live off site in case the building floods.",
		"Snapshots are fast but share a failure domain with the disk they live on.",
		"Schedule restore drills so the procedure is practiced before it is needed.",
		"Encrypt backups at rest and keep the keys somewhere other than the backup.",
	},
	"tides.txt": {
		"Tides are driven mostly by the gravitational pull of the moon.",
		"The sun adds a smaller pull that strengthens or weakens the tide.",
		"Spring tides happen near new and full moon when the pulls line up.",
		"Neap tides come at the quarter moons and have the smallest range.",
		"Tide tables let sailors plan passages through shallow channels.",
		"Some bays funnel the incoming water into a tidal bore.",
	},
}

// source yields document names and their text.
type source = iter.Seq2[string, string]

// documentsFromDir returns an iterator over the supported files in dir.
func documentsFromDir(dir string) (source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	return func(yield func(string, string) bool) {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			text, err := ingestion.LoadFile(path)
			if err != nil {
				slog.Warn("skipping file", "path", path, "err", err)
				continue
			}
			if !yield(entry.Name(), text) {
				return
			}
		}
	}, nil
}

// builtinDocuments returns an iterator over the built-in corpus.
func builtinDocuments() source {
	return func(yield func(string, string) bool) {
		for name, lines := range documents {
			if !yield(name, strings.Join(lines, " ")) {
				return
			}
		}
	}
}

// findOrCreateDataset returns the default tenant's dataset called name.
func findOrCreateDataset(ctx context.Context, db *probe.Database, name string) (*core.Dataset, error) {
	dataset, err := db.DatasetRepository().FindDatasetByName(ctx, "default", name)
	if err == nil {
		return dataset, nil
	}
	return db.CreateDataset(ctx, &core.Dataset{TenantID: "default", Name: name})
}

func seed(c *cli.Context) error {
	db, err := probe.NewDatabase(c.String("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := c.Context
	dataset, err := findOrCreateDataset(ctx, db, c.String("dataset"))
	if err != nil {
		return fmt.Errorf("failed to prepare dataset: %w", err)
	}

	ingester, err := db.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer ingester.Release()

	src := builtinDocuments()
	if dir := c.String("dir"); dir != "" {
		src, err = documentsFromDir(dir)
		if err != nil {
			return err
		}
	}

	count := 0
	for name, text := range src {
		if _, err := ingester.Ingest(ctx, dataset, name, text, &ingestion.IngestOptions{UserID: "seeder"}); err != nil {
			return fmt.Errorf("failed to ingest %s: %w", name, err)
		}
		count++
	}
	ingester.Wait()

	slog.Info("seeded dataset", "dataset", dataset.Id, "name", dataset.Name, "documents", count)
	return nil
}

func main() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	app := &cli.App{
		Name:  "seeder",
		Usage: "Populate a dataset with sample documents",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Aliases: []string{"d"}, Usage: "Path to BadgerDB database directory", Value: "./probe_db"},
			&cli.StringFlag{Name: "dir", Usage: "Directory of text, markdown or PDF files to ingest instead of the built-in corpus"},
			&cli.StringFlag{Name: "dataset", Usage: "Dataset name", Value: "seed"},
		},
		Action: seed,
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("seeding failed", "err", err)
		os.Exit(1)
	}
}

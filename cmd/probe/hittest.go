package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/hittest"
	"github.com/urfave/cli/v2"
)

func hitTestCommand() *cli.Command {
	return &cli.Command{
		Name:      "hit-test",
		Usage:     "Run a retrieval against a dataset and show the projected hits",
		ArgsUsage: "QUERY...",
		Action:    hitTestAction,
		Flags: []cli.Flag{
			datasetFlag(),
			&cli.Uint64Flag{Name: "account", Usage: "Account ID recorded in the query log", Value: 1},
			&cli.IntFlag{Name: "limit", Usage: "Maximum hits to project (0 for no cap)"},
			&cli.StringFlag{Name: "method", Usage: "Override search method (semantic_search, full_text_search, hybrid_search)"},
			&cli.IntFlag{Name: "top-k", Usage: "Override number of results per strategy"},
			&cli.Float64Flag{Name: "score-threshold", Usage: "Override minimum score"},
			&cli.StringFlag{Name: "rerank-provider", Usage: "Reranking model provider", Value: "openai"},
			&cli.StringFlag{Name: "rerank-model", Usage: "Enable reranking with this model"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Show intermediate strategy results"},
			&cli.BoolFlag{Name: "json", Usage: "Print the raw result as JSON"},
		},
	}
}

func hitTestAction(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if err := hittest.CheckArgs(query); err != nil {
		return err
	}

	cfg, err := retrievalOverride(c)
	if err != nil {
		return err
	}

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	dataset, err := loadDataset(c.Context, db, c.Uint64("dataset"))
	if err != nil {
		return err
	}

	service, err := db.NewHitTester()
	if err != nil {
		return err
	}
	defer service.Close()

	var monitor hittest.Monitor
	if c.Bool("verbose") {
		monitor = &verboseMonitor{out: c.App.ErrWriter}
	}

	account := &core.Account{Id: core.ID(c.Uint64("account")), Name: "cli"}
	result, err := service.RetrieveWithMonitor(c.Context, dataset, query, account, cfg, c.Int("limit"), monitor)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(c.App.Writer, result)
	return nil
}

// retrievalOverride builds a retrieval config from the override flags, or
// returns nil when none is set so the dataset's saved config applies.
func retrievalOverride(c *cli.Context) (*core.RetrievalConfig, error) {
	if !c.IsSet("method") && !c.IsSet("top-k") && !c.IsSet("score-threshold") && !c.IsSet("rerank-model") {
		return nil, nil
	}

	cfg := core.DefaultRetrievalConfig()
	if c.IsSet("method") {
		cfg.SearchMethod = core.SearchMethod(c.String("method"))
	}
	if c.IsSet("top-k") {
		cfg.TopK = c.Int("top-k")
	}
	if c.IsSet("score-threshold") {
		threshold := float32(c.Float64("score-threshold"))
		cfg.ScoreThresholdEnabled = true
		cfg.ScoreThreshold = &threshold
	}
	if model := c.String("rerank-model"); model != "" {
		cfg.RerankingEnabled = true
		cfg.RerankingModel = &core.ModelRef{Provider: c.String("rerank-provider"), Model: model}
	}
	if err := core.ValidateRetrievalConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printResult(out io.Writer, result *core.RetrievalResult) {
	bold := color.New(color.Bold)
	score := color.New(color.FgYellow)

	bold.Fprintf(out, "Query: %s", result.Query.Content)
	fmt.Fprintf(out, " @ (%.3f, %.3f)\n", result.Query.Position.X, result.Query.Position.Y)
	fmt.Fprintf(out, "Found %d hits\n", len(result.Records))
	for i, record := range result.Records {
		fmt.Fprintf(out, "%d: ", i)
		if record.Score != nil {
			score.Fprintf(out, "[%0.3f]", *record.Score)
		} else {
			score.Fprint(out, "[  -  ]")
		}
		fmt.Fprintf(out, " '%s' (%d) @ (%.3f, %.3f)\n",
			truncate(record.Segment.Content, 80), record.Segment.Id, record.Position.X, record.Position.Y)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// verboseMonitor prints each retrieval stage.
type verboseMonitor struct {
	out io.Writer
}

var _ hittest.Monitor = (*verboseMonitor)(nil)

func (m *verboseMonitor) Start(query string, cfg *core.RetrievalConfig) {
	color.New(color.FgCyan).Fprintf(m.out, "Searching for %q\n", query)
	fmt.Fprintf(m.out, "  method=%s top_k=%d", cfg.SearchMethod, cfg.TopK)
	if t := cfg.EffectiveThreshold(); t != nil {
		fmt.Fprintf(m.out, " threshold=%.3f", *t)
	}
	if r := cfg.EffectiveRerankingModel(); r != nil {
		fmt.Fprintf(m.out, " rerank=%s", r)
	}
	fmt.Fprintln(m.out)
}

func (m *verboseMonitor) StrategyFinished(method core.SearchMethod, fragments []*core.ScoredFragment) {
	color.New(color.FgCyan).Fprintf(m.out, "%s: %d fragments\n", method, len(fragments))
	m.printFragments(fragments)
}

func (m *verboseMonitor) AfterRerank(fragments []*core.ScoredFragment) {
	color.New(color.FgCyan).Fprintf(m.out, "merged: %d fragments\n", len(fragments))
	m.printFragments(fragments)
}

func (m *verboseMonitor) Finish(result *core.RetrievalResult) {
	color.New(color.FgCyan).Fprintf(m.out, "projected %d records\n", len(result.Records))
}

func (m *verboseMonitor) printFragments(fragments []*core.ScoredFragment) {
	for _, f := range fragments {
		var s float32
		if f.Score != nil {
			s = *f.Score
		}
		fmt.Fprintf(m.out, "  [%0.3f] %s %s\n", s, f.FragmentID, truncate(f.Text, 60))
	}
}

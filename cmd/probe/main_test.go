package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// runApp runs the probe CLI against a fresh database and returns its output.
func runApp(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out

	base := []string{
		"probe",
		"--config", filepath.Join(dir, "probe.yaml"),
		"--db", filepath.Join(dir, "db"),
	}
	err := app.Run(append(base, args...))
	return out.String(), err
}

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestReembedCommandFlags(t *testing.T) {
	cmd := reembedCommand()

	t.Run("dataset is required", func(t *testing.T) {
		var datasetFlag *cli.Uint64Flag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.Uint64Flag); ok && f.Name == "dataset" {
				datasetFlag = f
				break
			}
		}
		require.NotNil(t, datasetFlag)
		assert.True(t, datasetFlag.Required)
	})

	t.Run("report-interval has default value of 100", func(t *testing.T) {
		var reportFlag *cli.IntFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "report-interval" {
				reportFlag = f
				break
			}
		}
		require.NotNil(t, reportFlag)
		assert.Equal(t, 100, reportFlag.Value)
	})

	t.Run("batch-size defers to config", func(t *testing.T) {
		var batchFlag *cli.IntFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "batch-size" {
				batchFlag = f
				break
			}
		}
		require.NotNil(t, batchFlag)
		assert.Zero(t, batchFlag.Value)
	})
}

func TestCommandValidation(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing dataset flag fails", func(t *testing.T) {
		_, err := runApp(t, dir, "reembed")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dataset")
	})

	t.Run("invalid batch size fails", func(t *testing.T) {
		_, err := runApp(t, dir, "reembed", "--dataset", "1", "--batch-size", "-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("hit-test requires a query", func(t *testing.T) {
		_, err := runApp(t, dir, "hit-test", "--dataset", "1")
		require.Error(t, err)
	})

	t.Run("ingest requires files", func(t *testing.T) {
		_, err := runApp(t, dir, "ingest", "--dataset", "1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one file")
	})

	t.Run("unknown dataset", func(t *testing.T) {
		_, err := runApp(t, dir, "dataset", "show", "--dataset", "42")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load dataset 42")
	})
}

func TestDatasetCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := runApp(t, dir, "dataset", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No datasets")

	out, err = runApp(t, dir, "dataset", "create", "--name", "handbook", "--model", "text-embedding-3-small")
	require.NoError(t, err)
	assert.Contains(t, out, "Created dataset")
	assert.Contains(t, out, "openai/text-embedding-3-small")

	_, err = runApp(t, dir, "dataset", "create", "--name", "handbook")
	require.Error(t, err)

	out, err = runApp(t, dir, "dataset", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "handbook")
	assert.Contains(t, out, "high_quality")

	out, err = runApp(t, dir, "queries", "--dataset", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "No queries")
}

func TestApisCommands(t *testing.T) {
	dir := t.TempDir()

	t.Run("list", func(t *testing.T) {
		out, err := runApp(t, dir, "apis", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "query_current_time")
		assert.Contains(t, out, "query_weather")
	})

	t.Run("invoke current time", func(t *testing.T) {
		out, err := runApp(t, dir, "apis", "invoke", "query_current_time")
		require.NoError(t, err)

		var result string
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.NotEmpty(t, result)
	})

	t.Run("invoke weather without location", func(t *testing.T) {
		_, err := runApp(t, dir, "apis", "invoke", "query_weather")
		require.Error(t, err)
	})

	t.Run("malformed param", func(t *testing.T) {
		_, err := runApp(t, dir, "apis", "invoke", "query_weather", "--param", "location")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "key=value")
	})
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"location=Berlin", "unit=c=celsius"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"location": "Berlin", "unit": "c=celsius"}, params)

	_, err = parseParams([]string{"=x"})
	require.Error(t, err)
}

func TestRetrievalOverride(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantNil bool
		wantErr bool
	}{
		{name: "no overrides", args: nil, wantNil: true},
		{name: "method and top-k", args: []string{"--method", "full_text_search", "--top-k", "4"}},
		{name: "threshold", args: []string{"--score-threshold", "0.5"}},
		{name: "invalid method", args: []string{"--method", "bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := hitTestCommand()
			cmd.Action = func(c *cli.Context) error {
				cfg, err := retrievalOverride(c)
				if tt.wantErr {
					assert.Error(t, err)
					return nil
				}
				require.NoError(t, err)
				if tt.wantNil {
					assert.Nil(t, cfg)
					return nil
				}
				require.NotNil(t, cfg)
				if c.IsSet("top-k") {
					assert.Equal(t, 4, cfg.TopK)
				}
				if c.IsSet("score-threshold") {
					require.NotNil(t, cfg.EffectiveThreshold())
					assert.InDelta(t, 0.5, *cfg.EffectiveThreshold(), 1e-6)
				}
				return nil
			}
			app := &cli.App{Name: "test", Commands: []*cli.Command{cmd}}
			args := append([]string{"test", "hit-test", "--dataset", "1"}, tt.args...)
			require.NoError(t, app.Run(append(args, "query")))
		})
	}
}

func TestAppCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"dataset", "ingest", "hit-test", "queries", "reembed", "apis", "transcribe", "synthesize", "voices"} {
		assert.NotNil(t, findCommand(t, app, name))
	}
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
				assert.True(t, slog.Default().Enabled(t.Context(), tc.expected))
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newApp()
		app.Commands = nil
		app.Action = func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		}

		err := app.Run([]string{"probe", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

func TestHitTestCommandFlags(t *testing.T) {
	cmd := hitTestCommand()

	var limitFlag *cli.IntFlag
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == "limit" {
			limitFlag = f
			break
		}
	}
	require.NotNil(t, limitFlag)
	assert.Zero(t, limitFlag.Value, "projection is uncapped by default")
}

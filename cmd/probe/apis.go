package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

func apisCommand() *cli.Command {
	return &cli.Command{
		Name:  "apis",
		Usage: "List and invoke external data functions",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered functions",
				Action: apisListAction,
			},
			{
				Name:      "invoke",
				Usage:     "Invoke a registered function",
				ArgsUsage: "NAME",
				Action:    apisInvokeAction,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "param",
						Aliases: []string{"p"},
						Usage:   "Parameter as key=value (repeatable)",
					},
				},
			},
		},
	}
}

func apisListAction(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := db.Registry()
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tPARAMETERS")
	for _, listing := range registry.List() {
		entry, _ := registry.Lookup(listing.Value)
		format := entry.ParameterFormat
		if format == "" {
			format = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", listing.Value, listing.Name, format)
	}
	return w.Flush()
}

func apisInvokeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one function name, got %d", c.NArg())
	}
	params, err := parseParams(c.StringSlice("param"))
	if err != nil {
		return err
	}

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := db.Registry().Invoke(c.Context, c.Args().First(), params)
	if err != nil {
		return err
	}
	return json.NewEncoder(c.App.Writer).Encode(result)
}

func parseParams(raw []string) (map[string]string, error) {
	params := make(map[string]string, len(raw))
	for _, p := range raw {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", p)
		}
		params[key] = value
	}
	return params, nil
}

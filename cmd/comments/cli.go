package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"comment-insights-go/internal/actionable"
	"comment-insights-go/internal/errors"
	"comment-insights-go/internal/export"
	"comment-insights-go/internal/report"
	"comment-insights-go/internal/session"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(sess *session.Session) *cli.App {
	app := &cli.App{
		Name:    "comments",
		Usage:   "Fetch video comments and classify them by sentiment and topic",
		Version: Version,
		Commands: []*cli.Command{
			runCmd(sess),
			fieldsCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func runCmd(sess *session.Session) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Fetch, analyze and report on the comments of one source",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Required: true, Usage: "Video URL or .xlsx path"},
			&cli.StringFlag{Name: "sort", Required: true, Usage: "Comment order: popular|recent"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write enriched comments to this .xlsx file"},
			&cli.StringFlag{Name: "fields", Usage: "Comma-separated export columns (default: all populated)"},
			&cli.StringFlag{Name: "charts", Usage: "Write distribution charts to this .xlsx file"},
			&cli.BoolFlag{Name: "json", Usage: "Print the report as JSON"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			w := c.App.Writer

			fetched, err := sess.Fetch(ctx, c.String("source"), c.String("sort"))
			if err != nil {
				return outputError(err)
			}
			fmt.Fprintf(c.App.ErrWriter, "fetched %d comments (%d without text dropped)\n", fetched.Kept, fetched.Dropped)

			if _, err := sess.Analyze(ctx); err != nil {
				if errors.Is(err, errors.ErrEmptyInput) {
					fmt.Fprintln(w, "no comments to analyze")
					return nil
				}
				return outputError(err)
			}

			if path := c.String("out"); path != "" {
				var names []string
				if f := c.String("fields"); f != "" {
					names = strings.Split(f, ",")
				}
				if err := writeFile(path, func(out io.Writer) error { return sess.Export(out, names) }); err != nil {
					return outputError(err)
				}
				fmt.Fprintf(c.App.ErrWriter, "exported to %s\n", path)
			}

			rep, err := sess.Report()
			if err != nil {
				return outputError(err)
			}

			if path := c.String("charts"); path != "" {
				if err := writeFile(path, func(out io.Writer) error { return report.WriteCharts(out, rep) }); err != nil {
					return outputError(err)
				}
				fmt.Fprintf(c.App.ErrWriter, "charts written to %s\n", path)
			}

			actions := actionable.Generate(rep)
			if c.Bool("json") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"report": rep, "actions": actions})
			}

			fmt.Fprint(w, report.Text(rep))
			for _, a := range actions {
				fmt.Fprintf(w, "\n* %s\n  %s (%s)\n", a.Insight, a.Action, a.Impact)
			}
			return nil
		},
	}
}

func fieldsCmd() *cli.Command {
	return &cli.Command{
		Name:  "fields",
		Usage: "List the columns available for export",
		Action: func(c *cli.Context) error {
			tw := table.NewWriter()
			tw.SetOutputMirror(c.App.Writer)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Field", "Added by"})
			for _, f := range export.BaseFields {
				tw.AppendRow(table.Row{f, "fetch"})
			}
			for _, f := range export.EnrichedFields {
				tw.AppendRow(table.Row{f, "analyze"})
			}
			tw.Render()
			return nil
		},
	}
}

// writeFile creates path and removes it again if write fails.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// outputError formats error for CLI.
func outputError(err error) error {
	if pErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, pErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

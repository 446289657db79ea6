package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hollismb/kapture/internal/config"
	"github.com/hollismb/kapture/internal/db"
	"github.com/hollismb/kapture/internal/errors"
	"github.com/hollismb/kapture/internal/ops"
	"github.com/hollismb/kapture/internal/vault"
	"github.com/hollismb/kapture/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg config.Config) *cli.App {
	app := &cli.App{
		Name:    "kapture",
		Usage:   "Personal capture vault",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(database, cfg),
			suggestCmd(database),
			existsCmd(database),
			recentCmd(database),
			configCmd(),
			rebuildCmd(database, cfg),
			serveCmd(database, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// captureCmd creates the capture command.
func captureCmd(database *sql.DB, cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Save a capture (content from --content or piped stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Capture text (defaults to stdin)"},
			&cli.StringFlag{Name: "clipboard", Usage: "Clipboard snippet to archive"},
			&cli.StringFlag{Name: "tags", Aliases: []string{"t"}, Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "sources", Aliases: []string{"s"}, Usage: "Comma-separated sources"},
			&cli.StringFlag{Name: "context", Usage: "Context value"},
			&cli.StringFlag{Name: "timestamp", Usage: "RFC3339 timestamp (defaults to now)"},
		},
		Action: func(c *cli.Context) error {
			content := c.String("content")
			if content == "" && stdinHasData() {
				piped, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				content = piped
			}
			if content == "" && c.String("clipboard") == "" {
				return outputError(errors.NewInvalidRequest("capture is empty: pass --content or pipe text via stdin"))
			}

			payload := map[string]any{}
			for key, value := range map[string]string{
				"content":   content,
				"clipboard": c.String("clipboard"),
				"tags":      c.String("tags"),
				"sources":   c.String("sources"),
				"context":   c.String("context"),
				"timestamp": c.String("timestamp"),
			} {
				if value != "" {
					payload[key] = value
				}
			}

			return outputJSON(ops.Ingest(database, vault.StoreFor(cfg), payload))
		},
	}
}

// suggestCmd creates the suggest command.
func suggestCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Ranked autocomplete candidates for a field",
		ArgsUsage: "<field> [query]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum candidates (default 10)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("usage: kapture suggest <field> [query]"))
			}
			field := c.Args().Get(0)
			if !db.ValidField(field) {
				return outputError(errors.NewInvalidField(field))
			}

			suggestions := ops.Suggest(database, field, c.Args().Get(1), c.Int("limit"))
			return outputJSON(map[string]any{"suggestions": suggestions})
		},
	}
}

// existsCmd creates the exists command.
func existsCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "Whether a value was ever recorded for a field",
		ArgsUsage: "<field> <value>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("usage: kapture exists <field> <value>"))
			}
			field := c.Args().Get(0)
			if !db.ValidField(field) {
				return outputError(errors.NewInvalidField(field))
			}

			return outputJSON(map[string]any{"exists": ops.Exists(database, field, c.Args().Get(1))})
		},
	}
}

// recentCmd creates the recent command.
func recentCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "The most recent capture's tags, sources, and context",
		Action: func(c *cli.Context) error {
			return outputJSON(ops.RecentValues(database))
		},
	}
}

// configCmd creates the config command.
func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration",
		Action: func(c *cli.Context) error {
			// Re-resolved here rather than reusing the startup snapshot, to
			// show exactly what a fresh process would see.
			return outputJSON(config.Load())
		},
	}
}

// rebuildCmd creates the rebuild command.
func rebuildCmd(database *sql.DB, cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "rebuild",
		Usage: "Rebuild the suggestion index from the capture files",
		Action: func(c *cli.Context) error {
			out, err := ops.Rebuild(database, vault.StoreFor(cfg))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(out)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(database *sql.DB, cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the capture daemon's HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8765, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(database, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// outputJSON prints indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if kErr, ok := err.(*errors.KaptureError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", kErr.Code, kErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Command repomap is a thin CLI shell over the capture pipeline. The CLI
// surface itself is not part of the core library contract — it exists so
// the module is runnable — and mirrors the flag/subcommand conventions
// the rest of the pack's indexers use.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/repomap-dev/repomap/internal/capture"
	"github.com/repomap-dev/repomap/internal/config"
	"github.com/repomap-dev/repomap/internal/debug"
	"github.com/repomap-dev/repomap/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "repomap",
		Usage:                  "Structural capture and analysis for Rust and Python repositories",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root to capture (defaults to the current directory)",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a .repomap.kdl config file (defaults to <root>/.repomap.kdl)",
			},
			&cli.StringSliceFlag{
				Name:  "lang",
				Usage: "Restrict capture to the given languages (rust, python); may be repeated",
			},
			&cli.IntFlag{
				Name:  "parallelism",
				Usage: "Number of Phase-1 worker goroutines (0 = NumCPU-1)",
			},
			&cli.StringFlag{
				Name:  "since-ref",
				Usage: "Git ref stored in the config for diff output; capture does not filter by it",
			},
			&cli.StringFlag{
				Name:  "focus",
				Usage: "Restrict capture to paths under this prefix",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable trace logging to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			captureCommand(),
			statusCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "repomap:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	root := c.String("root")

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if langs := c.StringSlice("lang"); len(langs) > 0 {
		cfg.Index.Languages = langs
	}
	if p := c.Int("parallelism"); p > 0 {
		cfg.Index.Parallelism = p
	}
	if ref := c.String("since-ref"); ref != "" {
		cfg.Index.SinceRef = ref
	}
	if focus := c.String("focus"); focus != "" {
		cfg.Index.FocusPrefix = focus
	}

	return cfg, nil
}

func captureCommand() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Run the two-phase capture pipeline and print a summary",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit the full CaptureResult and Report as JSON instead of a summary",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			result, report, err := capture.Run(c.Context, cfg)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return writeJSON(os.Stdout, struct {
					Result interface{} `json:"result"`
					Report interface{} `json:"report"`
				}{result, report})
			}

			fmt.Printf("parsed=%d cached=%d skipped=%d hotspots=%d clusters=%d\n",
				result.Parsed, result.Cached, len(result.Skipped),
				len(report.Hotspots), len(report.Clusters))
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Print resolved configuration without running capture",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, cfg)
		},
	}
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

const appVersion = "0.1.0"

func main() {
	app := newApp(os.Stderr)
	if err := app.Run(os.Args); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the CLI. cargo runs external subcommands as
// "cargo-vendor-add vendor-add ...", so the app is named cargo
// and the real work sits under the vendor-add command.
func newApp(stderr io.Writer) *cli.App {
	return &cli.App{
		Name:            "cargo",
		HelpName:        "cargo",
		Usage:           "add crates directly to a cargo vendor directory",
		Version:         appVersion,
		HideVersion:     true,
		HideHelpCommand: true,
		ErrWriter:       stderr,
		Before: func(c *cli.Context) error {
			configureLogging(c.App.ErrWriter, c.Bool("verbose"))
			return nil
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "verbose output",
			},
		},
		Commands: []*cli.Command{
			vendorAddCmd(),
		},
	}
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
		}),
	))
}

func printError(w io.Writer, err error) {
	prefix := "error:"
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		red := color.New(color.FgRed, color.Bold)
		red.EnableColor()
		prefix = red.Sprint(prefix)
	}
	fmt.Fprintf(w, "%s %v\n", prefix, err)
}

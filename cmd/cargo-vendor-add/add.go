package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tqbf/cargo-vendor-add/pkg/crate"
)

func vendorAddCmd() *cli.Command {
	return &cli.Command{
		Name:  "vendor-add",
		Usage: "add a .crate file to a vendor directory",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:     "crate",
				Usage:    "crate file path",
				Required: true,
			},
			&cli.PathFlag{
				Name:     "vendor-path",
				EnvVars:  []string{"CARGO_VENDOR_PATH"},
				Usage:    "vendor directory path",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "fail on malformed archive entries instead of skipping them",
			},
		},
		Action: vendorAddAction,
	}
}

func vendorAddAction(c *cli.Context) error {
	if c.NArg() != 0 {
		return fmt.Errorf(
			"usage: cargo vendor-add --crate <CRATE_FILE> " +
				"--vendor-path <VENDOR_DIR>",
		)
	}

	opts := crate.Options{Log: c.App.ErrWriter}
	if c.Bool("strict") {
		opts.Malformed = crate.FailMalformed
	}

	_, err := crate.AddCrate(
		c.Path("crate"), c.Path("vendor-path"), opts,
	)
	return err
}

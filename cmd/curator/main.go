package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A .env file next to the binary provides defaults for the env vars.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to load .env: %w", err))
		os.Exit(1)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	run := runFlags()
	show := checkpointFlags()
	reset := resetFlags()

	return &cli.App{
		Name:  "curator",
		Usage: "Vote on and reply to Hive posts on command",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Scan the comment stream and react to commands",
				Flags:  run,
				Before: loadConfigFile(run),
				Action: runCurator,
			},
			{
				Name:  "checkpoint",
				Usage: "Inspect or reset the stored block checkpoint",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the stored block number",
						Flags:  show,
						Before: loadConfigFile(show),
						Action: showCheckpoint,
					},
					{
						Name:   "reset",
						Usage:  "Remove the checkpoint, or overwrite it with --height",
						Flags:  reset,
						Before: loadConfigFile(reset),
						Action: resetCheckpoint,
					},
				},
			},
		},
	}
}

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/hive-curator/pkg/checkpointer"
)

func showCheckpoint(c *cli.Context) error {
	cp, err := checkpointer.NewFile(c.String("checkpoint-file"))
	if err != nil {
		return err
	}
	height, exists, err := cp.Read(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if !exists {
		fmt.Fprintf(c.App.Writer, "no checkpoint at %s\n", cp.Path())
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%d\n", height)
	return nil
}

func resetCheckpoint(c *cli.Context) error {
	cp, err := checkpointer.NewFile(c.String("checkpoint-file"))
	if err != nil {
		return err
	}
	if c.IsSet("height") {
		if err := cp.Initialize(c.Context); err != nil {
			return fmt.Errorf("failed to initialize checkpoint: %w", err)
		}
		height := c.Uint64("height")
		if err := cp.Write(c.Context, height); err != nil {
			return fmt.Errorf("failed to write checkpoint: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "checkpoint set to %d\n", height)
		return nil
	}

	if err := cp.Remove(c.Context); err != nil {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "checkpoint %s removed\n", cp.Path())
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type AddCommand struct {
	Name string `arg:"" help:"File name of the new document, e.g. notes.md."`
	File string `help:"Read the content from this file instead of stdin." type:"existingfile" default:""`
}

func (c AddCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}

	var content []byte
	if c.File != "" {
		content, err = os.ReadFile(c.File)
	} else {
		content, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	dir, err := a.documentDir()
	if err != nil {
		return err
	}

	index, closeIndex, err := a.openIndex(ctx)
	if err != nil {
		return err
	}
	defer closeIndex()

	chunks, err := a.newIndexer(index).AddNewDocument(ctx, dir, c.Name, string(content))
	if err != nil {
		return err
	}
	color.Green("✓ Added %s (%d chunks)", c.Name, chunks)
	return nil
}

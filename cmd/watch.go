package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/xhad/examaid/pkg/display"
)

type WatchCommand struct {
	Strategy  string `help:"How clipboard images are read: passthrough, ocr or vision." default:""`
	Clipboard string `help:"Clipboard probe: wayland, x11 or text." default:""`
}

func (c WatchCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	if c.Strategy != "" {
		a.cfg.Watcher.Strategy = c.Strategy
	}
	if c.Clipboard != "" {
		a.cfg.Watcher.Clipboard = c.Clipboard
	}

	pipeline, err := a.newPipeline(ctx, display.NewTerminal(os.Stdout))
	if err != nil {
		return err
	}

	color.Cyan("Watching the clipboard (%s). Press Ctrl+C to stop.", a.cfg.Watcher.Strategy)
	return pipeline.Run(ctx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/xhad/examaid/internal/types"
	"github.com/xhad/examaid/pkg/display"
	"github.com/xhad/examaid/pkg/watcher"
	"github.com/xhad/examaid/server"
	"golang.org/x/sync/errgroup"
)

type ServeCommand struct {
	ListenAddr string `help:"The address to listen on." env:"LISTEN_ADDR" default:""`
	Clipboard  bool   `help:"Also watch the clipboard and broadcast answers." default:"false"`
	NoIndex    bool   `help:"Skip indexing the document directory at startup." default:"false"`
}

func (c ServeCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	if c.ListenAddr != "" {
		a.cfg.Server.ListenAddr = c.ListenAddr
	}

	index, closeIndex, err := a.openIndex(ctx)
	if err != nil {
		return err
	}
	defer closeIndex()
	indexer := a.newIndexer(index)

	dir, err := a.documentDir()
	if err != nil {
		return err
	}
	if !c.NoIndex {
		if _, err := indexer.LoadSource(ctx, dir); err != nil {
			return err
		}
	}

	generator, err := a.newGenerator(ctx, index)
	if err != nil {
		return err
	}

	hub := server.New(server.Config{
		Answerer: generator,
		Ingester: indexer,
		NewSource: func(url string, onProgress func(string)) (types.DocumentSource, error) {
			s, err := a.newScraper(url, onProgress)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Logger: a.log,
	})

	var pipeline *watcher.Pipeline
	if c.Clipboard {
		pipeline, err = a.newPipeline(ctx, display.Multi{display.NewTerminal(os.Stdout), hub})
		if err != nil {
			return err
		}
	}

	s := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		a.log.Info("Listening", slog.String("addr", s.Addr))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	if a.cfg.RAG.WatchDataDir {
		eg.Go(func() error {
			return a.watchDocuments(ctx, dir, indexer)
		})
	}

	if pipeline != nil {
		eg.Go(func() error {
			return pipeline.Run(ctx)
		})
	}

	return eg.Wait()
}

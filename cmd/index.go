package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/xhad/examaid/internal/models"
)

type documentList []models.Document

func (d documentList) Documents(context.Context) ([]models.Document, error) {
	return d, nil
}

type IndexCommand struct {
	URL string `help:"Also scrape and index this documentation site." default:""`
}

func (c IndexCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
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
	docs, err := dir.Documents(ctx)
	if err != nil {
		return err
	}

	bar := getProgressBar(len(docs), "🔄 Indexing documents...")
	indexer.OnProgress(func(models.Document, int) { bar.Add(1) })
	chunks, err := indexer.LoadSource(ctx, documentList(docs))
	bar.Finish()
	if err != nil {
		return err
	}
	color.Green("\n✓ Indexed %d documents from %s into %d chunks", len(docs), dir.Path(), chunks)

	if c.URL == "" {
		return nil
	}

	var pages int32
	spinner := getSpinner("📄 Scraping documentation...")
	s, err := a.newScraper(c.URL, func(string) {
		atomic.AddInt32(&pages, 1)
		spinner.Add(1)
	})
	if err != nil {
		return err
	}
	indexer.OnProgress(nil)
	chunks, err = indexer.LoadSource(ctx, s)
	spinner.Finish()
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", c.URL, err)
	}
	color.Green("\n✓ Indexed %d pages from %s into %d chunks", atomic.LoadInt32(&pages), c.URL, chunks)
	return nil
}

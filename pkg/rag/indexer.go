package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
	"github.com/xhad/examaid/pkg/processor"
)

// DocumentWriter persists a new document and returns where it was written.
type DocumentWriter interface {
	Write(name, content string) (string, error)
}

// Indexer chunks documents, embeds the chunks and writes them to an Index.
type Indexer struct {
	index      *Index
	processor  processor.Processor
	onProgress func(doc models.Document, chunks int)
}

func NewIndexer(index *Index, proc processor.Processor) *Indexer {
	return &Indexer{
		index:     index,
		processor: proc,
	}
}

// OnProgress registers fn to be called after each document is ingested.
func (ix *Indexer) OnProgress(fn func(doc models.Document, chunks int)) {
	ix.onProgress = fn
}

// Ingest replaces the indexed chunks of sourceFile with the chunks of content
// and returns how many there are. Ingesting the same content twice leaves
// the index unchanged.
func (ix *Indexer) Ingest(ctx context.Context, sourceFile, content string) (int, error) {
	return ix.ingest(ctx, models.Document{Name: sourceFile, Content: content})
}

func (ix *Indexer) ingest(ctx context.Context, doc models.Document) (int, error) {
	if err := ix.index.checkModel(ctx, true); err != nil {
		return 0, err
	}

	chunks := ix.processor.Process(doc)
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vectors, err := ix.index.embedDocuments(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to embed %s: %w", doc.Name, err)
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}

		if err := ix.index.store.Upsert(ctx, chunks); err != nil {
			return 0, fmt.Errorf("failed to store %s: %w", doc.Name, err)
		}
	}

	// A shorter revision leaves stale trailing chunks behind.
	if err := ix.index.store.Prune(ctx, doc.Name, len(chunks)); err != nil {
		return len(chunks), err
	}

	ix.index.log.Debug("ingested document", slog.String("source", doc.Name), slog.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// LoadSource ingests every document src yields and returns the number of
// chunks written. It stops at the first failure; documents ingested before it
// stay in the index.
func (ix *Indexer) LoadSource(ctx context.Context, src types.DocumentSource) (int, error) {
	docs, err := src.Documents(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load documents: %w", err)
	}

	var total int
	for _, doc := range docs {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		n, err := ix.ingest(ctx, doc)
		if err != nil {
			return total, err
		}
		total += n
		if ix.onProgress != nil {
			ix.onProgress(doc, n)
		}
	}

	ix.index.log.Info("loaded documents", slog.Int("documents", len(docs)), slog.Int("chunks", total))
	return total, nil
}

// AddNewDocument saves content under name and indexes it.
func (ix *Indexer) AddNewDocument(ctx context.Context, w DocumentWriter, name, content string) (int, error) {
	path, err := w.Write(name, content)
	if err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", name, err)
	}
	return ix.ingest(ctx, models.Document{Name: name, Path: path, Content: content})
}

// Remove drops every chunk of sourceFile.
func (ix *Indexer) Remove(ctx context.Context, sourceFile string) error {
	if err := ix.index.store.DeleteSource(ctx, sourceFile); err != nil {
		return fmt.Errorf("failed to remove %s: %w", sourceFile, err)
	}
	ix.index.log.Debug("removed document", slog.String("source", sourceFile))
	return nil
}

package rag

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/xhad/examaid/internal/types"
)

// Index couples a vector store with the one embedder allowed to read and
// write it. The embedder's model name is recorded in the store on the first
// write; any later use with a different model fails with
// types.ErrEmbeddingMismatch.
type Index struct {
	store    types.VectorStore
	embedder embeddings.Embedder
	model    string
	log      *slog.Logger
}

func NewIndex(store types.VectorStore, embedder embeddings.Embedder, model string, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Index{
		store:    store,
		embedder: embedder,
		model:    model,
		log:      logger,
	}
}

func (ix *Index) Store() types.VectorStore {
	return ix.store
}

func (ix *Index) Model() string {
	return ix.model
}

func (ix *Index) Count(ctx context.Context) (int, error) {
	return ix.store.Count(ctx)
}

// checkModel compares the recorded model with ours, claiming an untagged
// index when claim is set.
func (ix *Index) checkModel(ctx context.Context, claim bool) error {
	tag, err := ix.store.ModelTag(ctx)
	if err != nil {
		return fmt.Errorf("failed to read index model: %w", err)
	}

	switch {
	case tag == ix.model:
		return nil
	case tag == "":
		if !claim {
			return nil
		}
		if err := ix.store.SetModelTag(ctx, ix.model); err != nil {
			return fmt.Errorf("failed to record index model: %w", err)
		}
		ix.log.Debug("recorded embedding model", slog.String("model", ix.model))
		return nil
	default:
		return fmt.Errorf("%w: index was built with %q, embedder is %q", types.ErrEmbeddingMismatch, tag, ix.model)
	}
}

func (ix *Index) embedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding documents: %w", types.ErrModelCall, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts", types.ErrModelCall, len(vectors), len(texts))
	}
	return vectors, nil
}

func (ix *Index) embedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := ix.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", types.ErrModelCall, err)
	}
	return vector, nil
}

package rag

import (
	"context"
	"fmt"
)

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 3

type Retriever struct {
	index *Index
}

func NewRetriever(index *Index) *Retriever {
	return &Retriever{index: index}
}

// Retrieve returns the texts of the topK chunks closest to query, most
// similar first. An empty index yields an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	n, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if n == 0 {
		return []string{}, nil
	}

	if err := r.index.checkModel(ctx, false); err != nil {
		return nil, err
	}

	embedding, err := r.index.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := r.index.store.Query(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts, nil
}

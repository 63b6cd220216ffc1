package types

import (
	"context"

	"github.com/xhad/examaid/internal/models"
)

// Core interfaces

// ContentSource reads whatever is currently on the clipboard. Read failures
// and an empty clipboard both yield the zero Payload.
type ContentSource interface {
	Poll(ctx context.Context) models.Payload
}

// Display shows a line of text to the user. It is called from the watcher
// goroutine and must be safe to call off the UI thread.
type Display interface {
	Display(text string)
}

type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type VisionModel interface {
	GenerateWithImage(ctx context.Context, prompt string, img models.Image) (string, error)
}

type OCR interface {
	Recognize(ctx context.Context, img models.Image) (string, error)
}

// VectorStore persists chunks and answers nearest-neighbour queries. Query
// results are ordered most similar first.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []models.Chunk) error
	Query(ctx context.Context, embedding []float32, k int) ([]models.Chunk, error)
	// Prune removes chunks of sourceFile whose ordinal is >= keep.
	Prune(ctx context.Context, sourceFile string, keep int) error
	DeleteSource(ctx context.Context, sourceFile string) error
	Count(ctx context.Context) (int, error)
	// ModelTag returns the embedding model recorded for the index, or "".
	ModelTag(ctx context.Context) (string, error)
	SetModelTag(ctx context.Context, tag string) error
	Close() error
}

type DocumentSource interface {
	Documents(ctx context.Context) ([]models.Document, error)
}

package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xhad/examaid/internal/types"
)

// Generator answers queries with retrieved context and a local text model.
type Generator struct {
	retriever *Retriever
	model     types.TextModel
	topK      int
	log       *slog.Logger
}

func NewGenerator(retriever *Retriever, model types.TextModel, topK int) *Generator {
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Generator{
		retriever: retriever,
		model:     model,
		topK:      topK,
		log:       retriever.index.log,
	}
}

// BuildPrompt joins the context chunks with single spaces.
func BuildPrompt(chunks []string, query string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuery: %s\n\nResponse:", strings.Join(chunks, " "), query)
}

// Answer returns the model's raw response, whitespace included.
func (g *Generator) Answer(ctx context.Context, query string) (string, error) {
	chunks, err := g.retriever.Retrieve(ctx, query, g.topK)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve context: %w", err)
	}
	g.log.Debug("retrieved context", slog.Int("chunks", len(chunks)))

	response, err := g.model.Generate(ctx, BuildPrompt(chunks, query))
	if err != nil {
		if !errors.Is(err, types.ErrModelCall) {
			err = fmt.Errorf("%w: %w", types.ErrModelCall, err)
		}
		return "", err
	}
	return response, nil
}

package llm

import (
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// EmbedderConfig represents the configuration for the embedding model.
type EmbedderConfig struct {
	Model      string
	BatchSize  int
	BaseURL    string // Ollama server URL
	HTTPClient *http.Client
}

// Embedder pairs a langchaingo embedder with the name of the model behind
// it, which the index records to keep ingest and query in the same space.
type Embedder struct {
	embeddings.Embedder
	Config EmbedderConfig
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text" // Default Ollama model
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	ec, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
		ollama.WithHTTPClient(config.HTTPClient))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	emb, err := embeddings.NewEmbedder(ec, embeddings.WithBatchSize(config.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &Embedder{
		Embedder: emb,
		Config:   config,
	}, nil
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.Config.Model
}

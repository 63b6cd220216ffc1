package processor

import (
	"github.com/xhad/examaid/internal/models"
)

// DefaultChunkSize is the number of characters per chunk.
const DefaultChunkSize = 500

type ProcessorConfig struct {
	ChunkSize int
}

// Processor cuts documents into fixed-length, non-overlapping character
// windows. Boundaries ignore sentences and tokens; only the last window may
// be shorter than ChunkSize.
type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}

	return Processor{
		config: config,
	}
}

func (p Processor) ChunkSize() int {
	return p.config.ChunkSize
}

// Split returns the windows of content. Sizes are counted in runes so that
// multi-byte characters are never cut in half. Invalid UTF-8 bytes come back
// as U+FFFD, so callers should reject such content first.
func (p Processor) Split(content string) []string {
	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}

	size := p.config.ChunkSize
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}

// Process splits a document into chunks keyed by their stable ids. The
// embeddings are left empty for the indexer to fill.
func (p Processor) Process(doc models.Document) []models.Chunk {
	texts := p.Split(doc.Content)

	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.NewChunk(doc.Name, i, text, nil)
	}

	return chunks
}

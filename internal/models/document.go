package models

import "fmt"

// Document is a unit of source text handed to the indexer, either a file
// from the document directory or a scraped page.
type Document struct {
	Name     string
	Path     string
	Content  string
	Metadata map[string]interface{}
}

// Chunk is a fixed-size slice of a document as stored in the vector index.
type Chunk struct {
	ID         string
	SourceFile string
	Ordinal    int
	Text       string
	Embedding  []float32

	// Distance is only populated on query results.
	Distance float64
}

// ChunkID derives the stable identifier of the ordinal-th chunk of sourceFile.
func ChunkID(sourceFile string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%d", sourceFile, ordinal)
}

// NewChunk builds a chunk with its deterministic id.
func NewChunk(sourceFile string, ordinal int, text string, embedding []float32) Chunk {
	return Chunk{
		ID:         ChunkID(sourceFile, ordinal),
		SourceFile: sourceFile,
		Ordinal:    ordinal,
		Text:       text,
		Embedding:  embedding,
	}
}

package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/examaid/internal/models"
)

func TestPayloadEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Payload
		want bool
	}{
		{"same text", models.TextPayload("a"), models.TextPayload("a"), true},
		{"different text", models.TextPayload("a"), models.TextPayload("b"), false},
		{"whitespace matters", models.TextPayload("a"), models.TextPayload("a "), false},
		{"same image", models.ImagePayload([]byte{1, 2}), models.ImagePayload([]byte{1, 2}), true},
		{"different image", models.ImagePayload([]byte{1, 2}), models.ImagePayload([]byte{1, 3}), false},
		{"text vs image", models.TextPayload("ab"), models.ImagePayload([]byte("ab")), false},
		{"image ignores leftover text", models.Payload{Text: "x", Image: []byte{1}}, models.ImagePayload([]byte{1}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestPayloadEmpty(t *testing.T) {
	assert.True(t, models.Payload{}.Empty())
	assert.True(t, models.TextPayload(" \n\t").Empty())
	assert.False(t, models.TextPayload("q").Empty())
	assert.False(t, models.ImagePayload([]byte{0}).Empty())
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "notes.md_chunk_3", models.ChunkID("notes.md", 3))

	c := models.NewChunk("a.txt", 0, "hello", nil)
	assert.Equal(t, "a.txt_chunk_0", c.ID)
	assert.Equal(t, 0, c.Ordinal)
}

package store

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/xhad/examaid/internal/models"
)

// cosineDistance returns 1 - cosine similarity. Mismatched or zero vectors
// are as far away as possible.
func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 2
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// nearest ranks candidates by ascending distance to query, ties broken by
// id, and keeps at most k.
func nearest(candidates []models.Chunk, query []float32, k int) []models.Chunk {
	for i := range candidates {
		candidates[i].Distance = cosineDistance(candidates[i].Embedding, query)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].ID < candidates[j].ID
	})

	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}

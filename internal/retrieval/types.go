// Package retrieval runs dense retrieval over loaded datasets.
package retrieval

import (
	"context"
	"math"

	"github.com/beirkit/beirkit/internal/dataset"
)

// Results maps query id -> doc id -> retrieval score.
type Results map[string]map[string]float64

// Searcher retrieves the top-k corpus documents for each query.
type Searcher interface {
	Search(ctx context.Context, corpus, queries map[string]dataset.Record, topK int) (Results, error)
}

// Score function names.
const (
	ScoreCosSim = "cos_sim"
	ScoreDot    = "dot"
)

// ScoreFunc computes a similarity between two vectors.
type ScoreFunc func(a, b []float32) float64

// ScoreFuncFor returns the score function for a name, defaulting to
// cosine similarity.
func ScoreFuncFor(name string) ScoreFunc {
	if name == ScoreDot {
		return Dot
	}
	return CosSim
}

// Dot computes the dot product of two vectors.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// CosSim computes cosine similarity. Zero vectors score 0.
func CosSim(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DocText builds the encodable text of a corpus document: title plus
// primary text.
func DocText(r dataset.Record) string {
	title := r.Title()
	text := r.Text()
	if title == "" {
		return text
	}
	if text == "" {
		return title
	}
	return title + " " + text
}

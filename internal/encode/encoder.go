// Package encode turns text into dense vectors for retrieval.
package encode

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	apperrors "github.com/beirkit/beirkit/internal/pkg/errors"
)

// Encoder generates dense embeddings from text.
type Encoder interface {
	// Name identifies the encoder, used to namespace cache keys.
	Name() string

	// Dim is the embedding dimension.
	Dim() int

	// Encode generates one embedding per input text.
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// HashingEncoder is a deterministic feature-hashing encoder: token
// frequencies are hashed into a fixed-dimension vector and L2
// normalized. It needs no model files, which makes it the default for
// offline evaluation runs.
type HashingEncoder struct {
	dim       int
	batchSize int
}

// NewHashingEncoder creates a hashing encoder.
func NewHashingEncoder(dim, batchSize int) *HashingEncoder {
	if dim <= 0 {
		dim = 256
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	return &HashingEncoder{dim: dim, batchSize: batchSize}
}

// Name implements Encoder.
func (e *HashingEncoder) Name() string { return "hashing" }

// Dim implements Encoder.
func (e *HashingEncoder) Dim() int { return e.dim }

// Encode implements Encoder. Inputs are processed in batches.
func (e *HashingEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.EncoderError("encoding cancelled", err)
		}

		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		for _, text := range texts[i:end] {
			out = append(out, e.embed(text))
		}
	}

	return out, nil
}

func (e *HashingEncoder) embed(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%uint32(e.dim)]++
	}
	return l2Normalize(vec)
}

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// l2Normalize scales a vector to unit length. Zero vectors pass through.
func l2Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

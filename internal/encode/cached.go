package encode

import (
	"context"

	"github.com/beirkit/beirkit/internal/pkg/hash"
)

// CachedEncoder wraps an Encoder with a read-through embedding cache.
// Cache keys are namespaced by encoder name and dimension.
type CachedEncoder struct {
	encoder Encoder
	cache   Cache
}

// NewCachedEncoder wraps an encoder with a cache.
func NewCachedEncoder(encoder Encoder, cache Cache) *CachedEncoder {
	return &CachedEncoder{encoder: encoder, cache: cache}
}

// Name implements Encoder.
func (e *CachedEncoder) Name() string { return e.encoder.Name() }

// Dim implements Encoder.
func (e *CachedEncoder) Dim() int { return e.encoder.Dim() }

// Encode implements Encoder. Hits come from the cache; only misses are
// forwarded to the wrapped encoder, preserving input order.
func (e *CachedEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		key := hash.EmbeddingKey(e.encoder.Name(), e.encoder.Dim(), text)
		if emb, ok := e.cache.Get(ctx, key); ok {
			out[i] = emb
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	encoded, err := e.encoder.Encode(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, i := range missIdx {
		out[i] = encoded[j]
		key := hash.EmbeddingKey(e.encoder.Name(), e.encoder.Dim(), missTexts[j])
		e.cache.Set(ctx, key, encoded[j])
	}

	return out, nil
}

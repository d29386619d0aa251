package retrieval

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/beirkit/beirkit/internal/dataset"
	"github.com/beirkit/beirkit/internal/encode"
	apperrors "github.com/beirkit/beirkit/internal/pkg/errors"
)

// ExactSearcher scores every query against every corpus document with a
// dense encoder. Exhaustive and exact, sized for evaluation datasets
// rather than production serving.
type ExactSearcher struct {
	encoder encode.Encoder
	score   ScoreFunc
	workers int
}

// NewExactSearcher creates an exact dense searcher. scoreFunction is
// "cos_sim" or "dot"; workers bounds query-scoring concurrency.
func NewExactSearcher(encoder encode.Encoder, scoreFunction string, workers int) *ExactSearcher {
	if workers <= 0 {
		workers = 4
	}
	return &ExactSearcher{
		encoder: encoder,
		score:   ScoreFuncFor(scoreFunction),
		workers: workers,
	}
}

// Search implements Searcher.
func (s *ExactSearcher) Search(ctx context.Context, corpus, queries map[string]dataset.Record, topK int) (Results, error) {
	if topK <= 0 {
		topK = 100
	}

	docIDs, docVecs, err := s.encodeCorpus(ctx, corpus)
	if err != nil {
		return nil, err
	}

	queryIDs := make([]string, 0, len(queries))
	queryTexts := make([]string, 0, len(queries))
	for id, q := range queries {
		queryIDs = append(queryIDs, id)
		queryTexts = append(queryTexts, q.QueryText())
	}

	queryVecs, err := s.encoder.Encode(ctx, queryTexts)
	if err != nil {
		return nil, apperrors.EncoderError("encoding queries", err)
	}

	// Per-query result slots, merged after the group completes.
	perQuery := make([]map[string]float64, len(queryIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for qi := range queryIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perQuery[qi] = s.topK(queryVecs[qi], docIDs, docVecs, topK)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make(Results, len(queryIDs))
	for qi, id := range queryIDs {
		results[id] = perQuery[qi]
	}
	return results, nil
}

func (s *ExactSearcher) encodeCorpus(ctx context.Context, corpus map[string]dataset.Record) ([]string, [][]float32, error) {
	docIDs := make([]string, 0, len(corpus))
	docTexts := make([]string, 0, len(corpus))
	for id, doc := range corpus {
		docIDs = append(docIDs, id)
		docTexts = append(docTexts, DocText(doc))
	}

	docVecs, err := s.encoder.Encode(ctx, docTexts)
	if err != nil {
		return nil, nil, apperrors.EncoderError("encoding corpus", err)
	}
	return docIDs, docVecs, nil
}

type scoredDoc struct {
	id    string
	score float64
}

func (s *ExactSearcher) topK(queryVec []float32, docIDs []string, docVecs [][]float32, k int) map[string]float64 {
	scored := make([]scoredDoc, len(docIDs))
	for i := range docIDs {
		scored[i] = scoredDoc{id: docIDs[i], score: s.score(queryVec, docVecs[i])}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id < scored[j].id
	})

	if k > len(scored) {
		k = len(scored)
	}

	out := make(map[string]float64, k)
	for _, d := range scored[:k] {
		out[d.id] = d.score
	}
	return out
}

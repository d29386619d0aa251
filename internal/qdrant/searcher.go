package qdrant

import (
	"context"
	"fmt"

	"github.com/beirkit/beirkit/internal/dataset"
	"github.com/beirkit/beirkit/internal/encode"
	apperrors "github.com/beirkit/beirkit/internal/pkg/errors"
	"github.com/beirkit/beirkit/internal/retrieval"
)

// Searcher retrieves documents from a Qdrant collection. The corpus is
// indexed on first use and queries run as dense ANN lookups.
type Searcher struct {
	client     *Client
	encoder    encode.Encoder
	collection string
	batchSize  int
}

// NewSearcher creates a Qdrant-backed searcher. The collection name is
// namespaced by the client's prefix.
func NewSearcher(client *Client, encoder encode.Encoder, collection string, batchSize int) *Searcher {
	if collection == "" {
		collection = "corpus"
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Searcher{
		client:     client,
		encoder:    encoder,
		collection: collection,
		batchSize:  batchSize,
	}
}

// Index encodes and upserts the corpus into the collection.
func (s *Searcher) Index(ctx context.Context, corpus map[string]dataset.Record) error {
	if err := s.client.EnsureCollection(ctx, s.collection, s.encoder.Dim()); err != nil {
		return apperrors.QdrantError("ensuring collection", err)
	}

	ids := make([]string, 0, len(corpus))
	texts := make([]string, 0, len(corpus))
	titles := make([]string, 0, len(corpus))
	for id, doc := range corpus {
		ids = append(ids, id)
		texts = append(texts, retrieval.DocText(doc))
		titles = append(titles, doc.Title())
	}

	vecs, err := s.encoder.Encode(ctx, texts)
	if err != nil {
		return apperrors.EncoderError("encoding corpus", err)
	}

	docs := make([]Document, len(ids))
	for i := range ids {
		docs[i] = Document{ID: ids[i], Vector: vecs[i], Title: titles[i]}
	}

	if err := s.client.UpsertDocuments(ctx, s.collection, docs, s.batchSize); err != nil {
		return apperrors.QdrantError("indexing corpus", err)
	}
	return nil
}

// Search implements retrieval.Searcher. The corpus is indexed before
// the first query batch runs.
func (s *Searcher) Search(ctx context.Context, corpus, queries map[string]dataset.Record, topK int) (retrieval.Results, error) {
	if topK <= 0 {
		topK = 100
	}

	if err := s.Index(ctx, corpus); err != nil {
		return nil, err
	}

	results := make(retrieval.Results, len(queries))
	for qid, q := range queries {
		vec, err := s.encodeQuery(ctx, q)
		if err != nil {
			return nil, err
		}

		hits, err := s.client.DenseQuery(ctx, s.collection, vec, topK)
		if err != nil {
			return nil, apperrors.QdrantError(fmt.Sprintf("querying %s", qid), err)
		}

		scores := make(map[string]float64, len(hits))
		for _, h := range hits {
			scores[h.DocID] = h.Score
		}
		results[qid] = scores
	}
	return results, nil
}

func (s *Searcher) encodeQuery(ctx context.Context, q dataset.Record) ([]float32, error) {
	vecs, err := s.encoder.Encode(ctx, []string{q.QueryText()})
	if err != nil {
		return nil, apperrors.EncoderError("encoding query", err)
	}
	return vecs[0], nil
}

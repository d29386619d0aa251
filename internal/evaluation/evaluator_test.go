package evaluation

import (
	"context"
	"testing"

	"github.com/beirkit/beirkit/internal/bus"
	"github.com/beirkit/beirkit/internal/dataset"
	"github.com/beirkit/beirkit/internal/retrieval"
)

// fixedSearcher returns canned results regardless of input.
type fixedSearcher struct {
	results retrieval.Results
	topK    int
}

func (f *fixedSearcher) Search(ctx context.Context, corpus, queries map[string]dataset.Record, topK int) (retrieval.Results, error) {
	f.topK = topK
	return f.results, nil
}

func testQrels(t *testing.T) *dataset.Qrels {
	t.Helper()
	q := dataset.NewQrels()
	q.Set("q1", "d1", 1)
	q.Set("q1", "d2", 1)
	q.Set("q2", "d3", 2)
	return q
}

func TestEvaluator_PerfectRanking(t *testing.T) {
	qrels := testQrels(t)
	results := retrieval.Results{
		"q1": {"d1": 0.9, "d2": 0.8, "d9": 0.1},
		"q2": {"d3": 0.95, "d7": 0.2},
	}

	e := NewEvaluator(&fixedSearcher{results: results}, []int{1, 3}, nil)

	res, err := e.Evaluate(context.Background(), qrels, results)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if got := res.NDCG["NDCG@3"]; got != 1 {
		t.Errorf("NDCG@3 = %f, want 1", got)
	}
	if got := res.Recall["Recall@3"]; got != 1 {
		t.Errorf("Recall@3 = %f, want 1", got)
	}
	// q1 has two relevant docs but only one fits at K=1
	if got := res.Recall["Recall@1"]; got != 0.75 {
		t.Errorf("Recall@1 = %f, want 0.75", got)
	}
	if got := res.Precision["P@1"]; got != 1 {
		t.Errorf("P@1 = %f, want 1", got)
	}
}

func TestEvaluator_MissingQueryScoresZero(t *testing.T) {
	qrels := testQrels(t)
	// q2 never retrieved anything
	results := retrieval.Results{
		"q1": {"d1": 0.9},
	}

	e := NewEvaluator(&fixedSearcher{results: results}, []int{1}, nil)

	res, err := e.Evaluate(context.Background(), qrels, results)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if got := res.Precision["P@1"]; got != 0.5 {
		t.Errorf("P@1 = %f, want 0.5 (q2 contributes zero)", got)
	}
}

func TestEvaluator_EmptyQrels(t *testing.T) {
	e := NewEvaluator(&fixedSearcher{}, nil, nil)

	if _, err := e.Evaluate(context.Background(), dataset.NewQrels(), nil); err == nil {
		t.Error("Evaluate() with empty qrels should fail")
	}
}

func TestEvaluator_RetrieveRaisesTopK(t *testing.T) {
	searcher := &fixedSearcher{results: retrieval.Results{}}
	e := NewEvaluator(searcher, []int{1, 10}, nil)

	_, err := e.Retrieve(context.Background(), nil, nil, 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if searcher.topK != 10 {
		t.Errorf("topK = %d, want 10 (raised to max K)", searcher.topK)
	}
}

func TestEvaluator_EvaluateCustom(t *testing.T) {
	qrels := dataset.NewQrels()
	qrels.Set("q1", "d1", 1)

	results := retrieval.Results{
		"q1": {"d0": 0.9, "d1": 0.8},
	}

	e := NewEvaluator(&fixedSearcher{results: results}, []int{3}, nil)

	mrr, err := e.EvaluateCustom(qrels, results, MetricMRR)
	if err != nil {
		t.Fatalf("EvaluateCustom(mrr) error = %v", err)
	}
	if got := mrr["MRR@3"]; got != 0.5 {
		t.Errorf("MRR@3 = %f, want 0.5", got)
	}

	ap, err := e.EvaluateCustom(qrels, results, MetricAP)
	if err != nil {
		t.Fatalf("EvaluateCustom(ap) error = %v", err)
	}
	if got := ap["AP@3"]; got != 0.5 {
		t.Errorf("AP@3 = %f, want 0.5", got)
	}

	if _, err := e.EvaluateCustom(qrels, results, "nope"); err == nil {
		t.Error("unknown metric should fail")
	}
}

func TestEvaluator_PublishesEvent(t *testing.T) {
	qrels := dataset.NewQrels()
	qrels.Set("q1", "d1", 1)
	results := retrieval.Results{"q1": {"d1": 0.9}}

	b := bus.NewMemoryBus()
	defer b.Close()

	got := make(chan bus.Event, 1)
	if err := b.Subscribe(context.Background(), bus.TopicEvalCompleted, func(ctx context.Context, e bus.Event) error {
		got <- e
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	e := NewEvaluator(&fixedSearcher{results: results}, []int{1}, nil).WithBus(b)

	if _, err := e.Evaluate(context.Background(), qrels, results); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	b.Close()
	select {
	case ev := <-got:
		if ev.Type != bus.TopicEvalCompleted {
			t.Errorf("event type = %s", ev.Type)
		}
	default:
		t.Error("no evaluation event published")
	}
}

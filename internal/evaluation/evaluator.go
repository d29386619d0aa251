package evaluation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/beirkit/beirkit/internal/bus"
	"github.com/beirkit/beirkit/internal/dataset"
	"github.com/beirkit/beirkit/internal/pkg/logger"
	"github.com/beirkit/beirkit/internal/retrieval"
)

// Metric names accepted by EvaluateCustom.
const (
	MetricMRR = "mrr"
	MetricAP  = "ap"
)

// Evaluator runs retrieval over a dataset and scores the results
// against its relevance judgments.
type Evaluator struct {
	searcher retrieval.Searcher
	kValues  []int
	log      *logger.Logger
	bus      bus.Bus
}

// Summary holds averaged metric values keyed by name, e.g. "NDCG@10".
type Summary map[string]float64

// Result bundles the metric families produced by Evaluate.
type Result struct {
	NDCG      Summary `json:"ndcg"`
	MAP       Summary `json:"map"`
	Recall    Summary `json:"recall"`
	Precision Summary `json:"precision"`
}

// NewEvaluator creates an evaluator. kValues defaults to {1, 3, 5, 10}
// when empty.
func NewEvaluator(searcher retrieval.Searcher, kValues []int, log *logger.Logger) *Evaluator {
	if len(kValues) == 0 {
		kValues = []int{1, 3, 5, 10}
	}
	if log == nil {
		log = logger.Default()
	}
	ks := make([]int, len(kValues))
	copy(ks, kValues)
	sort.Ints(ks)
	return &Evaluator{
		searcher: searcher,
		kValues:  ks,
		log:      log,
	}
}

// WithBus attaches an event bus; evaluation completions are published
// to it.
func (e *Evaluator) WithBus(b bus.Bus) *Evaluator {
	e.bus = b
	return e
}

// Retrieve runs the searcher over the full query set. topK is at least
// the largest configured K so every cutoff is measurable.
func (e *Evaluator) Retrieve(ctx context.Context, corpus, queries map[string]dataset.Record, topK int) (retrieval.Results, error) {
	maxK := e.kValues[len(e.kValues)-1]
	if topK < maxK {
		topK = maxK
	}

	start := time.Now()
	results, err := e.searcher.Search(ctx, corpus, queries, topK)
	if err != nil {
		return nil, err
	}

	e.log.Info("retrieval completed",
		"queries", len(queries),
		"corpus", len(corpus),
		"top_k", topK,
		"duration", time.Since(start).String(),
	)
	return results, nil
}

// Evaluate scores results against qrels at each configured K and
// averages over the judged queries. Queries absent from the results
// contribute zeros.
func (e *Evaluator) Evaluate(ctx context.Context, qrels *dataset.Qrels, results retrieval.Results) (*Result, error) {
	queries := qrels.Queries()
	if len(queries) == 0 {
		return nil, fmt.Errorf("no judged queries to evaluate")
	}

	res := &Result{
		NDCG:      make(Summary, len(e.kValues)),
		MAP:       make(Summary, len(e.kValues)),
		Recall:    make(Summary, len(e.kValues)),
		Precision: make(Summary, len(e.kValues)),
	}

	for _, qid := range queries {
		judgments := qrels.ForQuery(qid)
		ranked := rankedRelevances(results[qid], judgments)
		ideal := judgmentGrades(judgments)
		totalRelevant := countRelevant(judgments)

		for _, k := range e.kValues {
			res.NDCG[metricKey("NDCG", k)] += NDCG(ranked, ideal, k)
			res.MAP[metricKey("MAP", k)] += AveragePrecision(ranked, k, totalRelevant)
			res.Recall[metricKey("Recall", k)] += Recall(ranked, k, totalRelevant)
			res.Precision[metricKey("P", k)] += Precision(ranked, k)
		}
	}

	n := float64(len(queries))
	for _, s := range []Summary{res.NDCG, res.MAP, res.Recall, res.Precision} {
		for key := range s {
			s[key] = round5(s[key] / n)
		}
	}

	e.publishCompleted(ctx, len(queries), res)
	return res, nil
}

// EvaluateCustom computes a single extra metric family ("mrr" or "ap")
// at each configured K.
func (e *Evaluator) EvaluateCustom(qrels *dataset.Qrels, results retrieval.Results, metric string) (Summary, error) {
	queries := qrels.Queries()
	if len(queries) == 0 {
		return nil, fmt.Errorf("no judged queries to evaluate")
	}

	var name string
	var fn func(ranked []int, k, totalRelevant int) float64
	switch metric {
	case MetricMRR:
		name = "MRR"
		fn = func(ranked []int, k, _ int) float64 { return MRR(ranked, k) }
	case MetricAP:
		name = "AP"
		fn = AveragePrecision
	default:
		return nil, fmt.Errorf("unknown metric %q", metric)
	}

	out := make(Summary, len(e.kValues))
	for _, qid := range queries {
		judgments := qrels.ForQuery(qid)
		ranked := rankedRelevances(results[qid], judgments)
		totalRelevant := countRelevant(judgments)

		for _, k := range e.kValues {
			out[metricKey(name, k)] += fn(ranked, k, totalRelevant)
		}
	}

	n := float64(len(queries))
	for key := range out {
		out[key] = round5(out[key] / n)
	}
	return out, nil
}

func (e *Evaluator) publishCompleted(ctx context.Context, queryCount int, res *Result) {
	if e.bus == nil {
		return
	}
	event := bus.NewEvent(bus.TopicEvalCompleted, "evaluator", map[string]any{
		"queries":   queryCount,
		"ndcg":      res.NDCG,
		"map":       res.MAP,
		"recall":    res.Recall,
		"precision": res.Precision,
	})
	if err := e.bus.Publish(ctx, bus.TopicEvalCompleted, event); err != nil {
		e.log.WithError(err).Warn("failed to publish evaluation event")
	}
}

// rankedRelevances orders the retrieved documents by score, highest
// first with doc id as tiebreaker, and maps each to its judged grade.
func rankedRelevances(scores map[string]float64, judgments map[string]int) []int {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	ranked := make([]int, len(ids))
	for i, id := range ids {
		ranked[i] = judgments[id]
	}
	return ranked
}

func judgmentGrades(judgments map[string]int) []int {
	grades := make([]int, 0, len(judgments))
	for _, g := range judgments {
		grades = append(grades, g)
	}
	return grades
}

func countRelevant(judgments map[string]int) int {
	n := 0
	for _, g := range judgments {
		if g > 0 {
			n++
		}
	}
	return n
}

func metricKey(name string, k int) string {
	return fmt.Sprintf("%s@%d", name, k)
}

func round5(v float64) float64 {
	return float64(int64(v*100000+0.5)) / 100000
}

package evaluation

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNDCG(t *testing.T) {
	// Perfect ranking scores 1
	if got := NDCG([]int{2, 1, 0}, []int{2, 1, 0}, 3); !almostEqual(got, 1) {
		t.Errorf("perfect NDCG = %f, want 1", got)
	}

	// No relevant retrieved scores 0
	if got := NDCG([]int{0, 0, 0}, []int{1}, 3); got != 0 {
		t.Errorf("irrelevant NDCG = %f, want 0", got)
	}

	// Relevant doc at rank 2 out of one judged: DCG = 1/log2(3), IDCG = 1
	want := 1 / math.Log2(3)
	if got := NDCG([]int{0, 1}, []int{1}, 10); !almostEqual(got, want) {
		t.Errorf("NDCG = %f, want %f", got, want)
	}

	// Judged docs missing from results lower the score
	if got := NDCG([]int{1}, []int{1, 1}, 10); got >= 1 {
		t.Errorf("NDCG with missing judged doc = %f, want < 1", got)
	}
}

func TestRecall(t *testing.T) {
	ranked := []int{1, 0, 1, 0}

	if got := Recall(ranked, 1, 2); !almostEqual(got, 0.5) {
		t.Errorf("Recall@1 = %f, want 0.5", got)
	}
	if got := Recall(ranked, 4, 2); !almostEqual(got, 1) {
		t.Errorf("Recall@4 = %f, want 1", got)
	}
	// Judged relevant beyond the retrieved set caps recall below 1
	if got := Recall(ranked, 4, 3); !almostEqual(got, 2.0/3.0) {
		t.Errorf("Recall@4 = %f, want 2/3", got)
	}
	if got := Recall(ranked, 4, 0); got != 0 {
		t.Errorf("Recall with no relevant = %f, want 0", got)
	}
}

func TestPrecision(t *testing.T) {
	ranked := []int{1, 0, 1, 0}

	if got := Precision(ranked, 1); !almostEqual(got, 1) {
		t.Errorf("P@1 = %f, want 1", got)
	}
	if got := Precision(ranked, 4); !almostEqual(got, 0.5) {
		t.Errorf("P@4 = %f, want 0.5", got)
	}
	if got := Precision(ranked, 0); got != 0 {
		t.Errorf("P@0 = %f, want 0", got)
	}
}

func TestMRR(t *testing.T) {
	if got := MRR([]int{0, 0, 1}, 10); !almostEqual(got, 1.0/3.0) {
		t.Errorf("MRR = %f, want 1/3", got)
	}
	if got := MRR([]int{0, 0, 1}, 2); got != 0 {
		t.Errorf("MRR@2 = %f, want 0 (relevant past cutoff)", got)
	}
	if got := MRR([]int{0, 0}, 10); got != 0 {
		t.Errorf("MRR with no relevant = %f, want 0", got)
	}
}

func TestAveragePrecision(t *testing.T) {
	// Hits at ranks 1 and 3: (1/1 + 2/3) / 2
	want := (1.0 + 2.0/3.0) / 2
	if got := AveragePrecision([]int{1, 0, 1}, 10, 2); !almostEqual(got, want) {
		t.Errorf("AP = %f, want %f", got, want)
	}

	// Normalized by total judged relevant, not retrieved relevant
	if got := AveragePrecision([]int{1}, 10, 2); !almostEqual(got, 0.5) {
		t.Errorf("AP = %f, want 0.5", got)
	}

	if got := AveragePrecision([]int{0}, 10, 0); got != 0 {
		t.Errorf("AP with no relevant = %f, want 0", got)
	}
}

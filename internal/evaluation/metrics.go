// Package evaluation computes standard retrieval metrics over ranked
// results and relevance judgments.
package evaluation

import (
	"math"
	"sort"
)

// NDCG calculates Normalized Discounted Cumulative Gain at K. ranked
// holds relevance grades in retrieval order; ideal holds the grades of
// all judged documents for the query, from which the ideal ordering is
// derived.
func NDCG(ranked, ideal []int, k int) float64 {
	dcg := gainAt(ranked, k)

	sorted := make([]int, len(ideal))
	copy(sorted, ideal)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	idcg := gainAt(sorted, k)
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func gainAt(relevances []int, k int) float64 {
	if k > len(relevances) {
		k = len(relevances)
	}
	var g float64
	for i := 0; i < k; i++ {
		g += float64(relevances[i]) / math.Log2(float64(i+2))
	}
	return g
}

// Recall calculates Recall at K. totalRelevant is the number of judged
// relevant documents for the query, which may exceed the retrieved set.
func Recall(ranked []int, k, totalRelevant int) float64 {
	if totalRelevant == 0 {
		return 0
	}
	return float64(relevantAt(ranked, k)) / float64(totalRelevant)
}

// Precision calculates Precision at K.
func Precision(ranked []int, k int) float64 {
	if k == 0 {
		return 0
	}
	return float64(relevantAt(ranked, k)) / float64(k)
}

// MRR calculates the reciprocal rank of the first relevant document
// within the top K.
func MRR(ranked []int, k int) float64 {
	if k > len(ranked) {
		k = len(ranked)
	}
	for i := 0; i < k; i++ {
		if ranked[i] > 0 {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// AveragePrecision calculates Average Precision at K, normalized by the
// total number of judged relevant documents.
func AveragePrecision(ranked []int, k, totalRelevant int) float64 {
	if totalRelevant == 0 {
		return 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}

	relevant := 0
	sumPrecision := 0.0
	for i := 0; i < k; i++ {
		if ranked[i] > 0 {
			relevant++
			sumPrecision += float64(relevant) / float64(i+1)
		}
	}
	return sumPrecision / float64(totalRelevant)
}

func relevantAt(ranked []int, k int) int {
	if k > len(ranked) {
		k = len(ranked)
	}
	n := 0
	for i := 0; i < k; i++ {
		if ranked[i] > 0 {
			n++
		}
	}
	return n
}

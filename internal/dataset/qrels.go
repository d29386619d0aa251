package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/beirkit/beirkit/internal/pkg/errors"
)

// Qrels holds relevance judgments: query id -> doc id -> integer score.
// Iteration order over query ids and per-query doc ids follows first
// insertion, so reports built from qrels are deterministic.
type Qrels struct {
	scores     map[string]map[string]int
	queryOrder []string
	docOrder   map[string][]string
}

// NewQrels creates an empty relevance table.
func NewQrels() *Qrels {
	return &Qrels{
		scores:   make(map[string]map[string]int),
		docOrder: make(map[string][]string),
	}
}

// Set records a judgment. A duplicate (query id, doc id) pair overwrites
// the earlier score without changing iteration order.
func (q *Qrels) Set(queryID, docID string, score int) {
	docs, ok := q.scores[queryID]
	if !ok {
		docs = make(map[string]int)
		q.scores[queryID] = docs
		q.queryOrder = append(q.queryOrder, queryID)
	}
	if _, seen := docs[docID]; !seen {
		q.docOrder[queryID] = append(q.docOrder[queryID], docID)
	}
	docs[docID] = score
}

// Score returns the judgment for a (query, doc) pair.
func (q *Qrels) Score(queryID, docID string) (int, bool) {
	s, ok := q.scores[queryID][docID]
	return s, ok
}

// ForQuery returns the doc id -> score mapping for a query. The result
// is never nil; queries without judgments get an empty map.
func (q *Qrels) ForQuery(queryID string) map[string]int {
	if docs, ok := q.scores[queryID]; ok {
		return docs
	}
	return map[string]int{}
}

// Queries returns the query ids in insertion order.
func (q *Qrels) Queries() []string {
	return q.queryOrder
}

// Docs returns the doc ids judged for a query, in insertion order.
func (q *Qrels) Docs(queryID string) []string {
	return q.docOrder[queryID]
}

// Len returns the number of distinct query ids.
func (q *Qrels) Len() int {
	return len(q.queryOrder)
}

// LoadQrels reads a tab-separated qrels file: query id, doc id, relevance
// score per row, extra columns ignored. Rows with fewer than 3 columns or
// a non-numeric score abort the load with a parse error naming the file
// and 1-based line number. There is no header detection; a header row is
// a parse error.
func LoadQrels(path string) (*Qrels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	qrels := NewQrels()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) < 3 {
			return nil, apperrors.ParseError(path, lineNo,
				fmt.Sprintf("expected at least 3 columns, got %d: %v", len(cols), cols))
		}

		queryID := strings.TrimSpace(cols[0])
		docID := strings.TrimSpace(cols[1])
		score, err := parseScore(strings.TrimSpace(cols[2]))
		if err != nil {
			return nil, apperrors.ParseError(path, lineNo,
				fmt.Sprintf("invalid relevance score: %q", strings.TrimSpace(cols[2])))
		}

		qrels.Set(queryID, docID, score)
	}

	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, fmt.Sprintf("reading %s", path), err)
	}

	return qrels, nil
}

// parseScore accepts integer and float-formatted scores ("1", "1.0") and
// truncates toward zero. ParseFloat also admits scientific notation, so
// "2e1" yields 20.
func parseScore(s string) (int, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

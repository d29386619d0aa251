package dataset

import (
	"strings"
	"testing"

	apperrors "github.com/beirkit/beirkit/internal/pkg/errors"
)

func TestLoadQrels(t *testing.T) {
	path := writeFile(t, "test.tsv", "q1\td1\t1\nq1\td2\t0\nq2\td1\t2\n")

	qrels, err := LoadQrels(path)
	if err != nil {
		t.Fatalf("LoadQrels() error = %v", err)
	}

	if qrels.Len() != 2 {
		t.Errorf("Len() = %d, want 2", qrels.Len())
	}

	if s, ok := qrels.Score("q1", "d2"); !ok || s != 0 {
		t.Errorf("Score(q1, d2) = %d, %v", s, ok)
	}
	if s, _ := qrels.Score("q2", "d1"); s != 2 {
		t.Errorf("Score(q2, d1) = %d, want 2", s)
	}

	// insertion order preserved
	if got := qrels.Queries(); got[0] != "q1" || got[1] != "q2" {
		t.Errorf("Queries() = %v", got)
	}
	if got := qrels.Docs("q1"); got[0] != "d1" || got[1] != "d2" {
		t.Errorf("Docs(q1) = %v", got)
	}
}

func TestLoadQrels_ScoreCoercion(t *testing.T) {
	tests := []struct {
		score string
		want  int
	}{
		{"2.0", 2},
		{"3.7", 3}, // truncation toward zero
		{"-1.9", -1},
		{"-0", 0},
		{"2e1", 20}, // ParseFloat admits scientific notation
	}

	for _, tt := range tests {
		t.Run(tt.score, func(t *testing.T) {
			path := writeFile(t, "test.tsv", "q1\td1\t"+tt.score+"\n")

			qrels, err := LoadQrels(path)
			if err != nil {
				t.Fatalf("LoadQrels() error = %v", err)
			}
			if s, _ := qrels.Score("q1", "d1"); s != tt.want {
				t.Errorf("score %q -> %d, want %d", tt.score, s, tt.want)
			}
		})
	}
}

func TestLoadQrels_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIn  string
	}{
		{"two columns", "q1\td1\n", "3 columns"},
		{"non-numeric score", "q1\td1\tabc\n", `"abc"`},
		{"header row", "query-id\tcorpus-id\tscore\n", "score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "test.tsv", tt.content)

			_, err := LoadQrels(path)
			if !apperrors.IsParse(err) {
				t.Fatalf("error = %v, want parse error", err)
			}
			if !strings.Contains(err.Error(), "line 1") {
				t.Errorf("error %q should reference line 1", err.Error())
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantIn)
			}
		})
	}
}

func TestLoadQrels_ExtraColumnsIgnored(t *testing.T) {
	path := writeFile(t, "test.tsv", "q1\td1\t1\textra\tmore\n")

	qrels, err := LoadQrels(path)
	if err != nil {
		t.Fatalf("LoadQrels() error = %v", err)
	}
	if s, _ := qrels.Score("q1", "d1"); s != 1 {
		t.Errorf("Score = %d, want 1", s)
	}
}

func TestLoadQrels_DuplicatePairOverwrites(t *testing.T) {
	path := writeFile(t, "test.tsv", "q1\td1\t1\nq1\td1\t3\n")

	qrels, err := LoadQrels(path)
	if err != nil {
		t.Fatalf("LoadQrels() error = %v", err)
	}
	if s, _ := qrels.Score("q1", "d1"); s != 3 {
		t.Errorf("Score = %d, want 3 (later row wins)", s)
	}
	if got := qrels.Docs("q1"); len(got) != 1 {
		t.Errorf("Docs(q1) = %v, want single entry", got)
	}
}

func TestQrels_ForQueryNeverNil(t *testing.T) {
	qrels := NewQrels()
	if m := qrels.ForQuery("nope"); m == nil || len(m) != 0 {
		t.Errorf("ForQuery(nope) = %v, want empty map", m)
	}
}

package dataset

import (
	"os"
	"path/filepath"

	apperrors "github.com/beirkit/beirkit/internal/pkg/errors"
)

// DefaultSplit is the qrels split loaded when none is specified.
const DefaultSplit = "test"

// Dataset is a fully loaded BEIR-style dataset triple. Constructed fresh
// per invocation and never mutated afterwards.
type Dataset struct {
	Dir   string
	Split string

	Corpus  map[string]Record
	Queries map[string]Record
	Qrels   *Qrels
}

// CorpusPath returns the corpus file path under dir.
func CorpusPath(dir string) string {
	return filepath.Join(dir, "corpus.jsonl")
}

// QueriesPath returns the queries file path under dir.
func QueriesPath(dir string) string {
	return filepath.Join(dir, "queries.jsonl")
}

// QrelsPath returns the qrels file path for a split under dir.
func QrelsPath(dir, split string) string {
	return filepath.Join(dir, "qrels", split+".tsv")
}

// MissingFiles returns the expected dataset paths that do not exist,
// in layout order.
func MissingFiles(dir, split string) []string {
	var missing []string
	for _, p := range []string{CorpusPath(dir), QueriesPath(dir), QrelsPath(dir, split)} {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, p)
		}
	}
	return missing
}

// Load loads a dataset directory. All three expected files are checked
// for existence before any parsing; if any is missing, a MISSING_FILE
// error listing every absent path is returned. The first parse error in
// any file aborts the whole load.
func Load(dir, split string) (*Dataset, error) {
	if split == "" {
		split = DefaultSplit
	}

	if missing := MissingFiles(dir, split); len(missing) > 0 {
		return nil, apperrors.MissingFileError(missing)
	}

	corpus, err := LoadRecords(CorpusPath(dir))
	if err != nil {
		return nil, err
	}

	queries, err := LoadRecords(QueriesPath(dir))
	if err != nil {
		return nil, err
	}

	qrels, err := LoadQrels(QrelsPath(dir, split))
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Dir:     dir,
		Split:   split,
		Corpus:  corpus,
		Queries: queries,
		Qrels:   qrels,
	}, nil
}

package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/beirkit/beirkit/internal/pkg/errors"
)

// writeDataset lays out a minimal BEIR-style directory.
func writeDataset(t *testing.T, corpus, queries, qrels string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "qrels"), 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		CorpusPath(dir):        corpus,
		QueriesPath(dir):       queries,
		QrelsPath(dir, "test"): qrels,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeDataset(t,
		`{"_id":"d1","title":"T","text":"hello world"}`+"\n",
		`{"_id":"q1","text":"hi"}`+"\n",
		"q1\td1\t1\n")

	ds, err := Load(dir, "test")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(ds.Corpus) != 1 || len(ds.Queries) != 1 || ds.Qrels.Len() != 1 {
		t.Errorf("sizes = %d/%d/%d, want 1/1/1", len(ds.Corpus), len(ds.Queries), ds.Qrels.Len())
	}
	if ds.Split != "test" {
		t.Errorf("Split = %s", ds.Split)
	}
}

func TestLoad_DefaultSplit(t *testing.T) {
	dir := writeDataset(t,
		`{"_id":"d1","text":"x"}`+"\n",
		`{"_id":"q1","text":"y"}`+"\n",
		"q1\td1\t1\n")

	ds, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Split != DefaultSplit {
		t.Errorf("Split = %s, want %s", ds.Split, DefaultSplit)
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir, "test")
	if !apperrors.IsMissingFile(err) {
		t.Fatalf("error = %v, want missing file error", err)
	}

	// all three paths reported together, before any parsing
	appErr := err.(*apperrors.AppError)
	if len(appErr.Details) != 3 {
		t.Errorf("Details = %v, want 3 missing paths", appErr.Details)
	}
}

func TestLoad_MissingQrelsOnly(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(CorpusPath(dir), []byte(`{"_id":"d1","text":"x"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(QueriesPath(dir), []byte(`{"_id":"q1","text":"y"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir, "test")
	if !apperrors.IsMissingFile(err) {
		t.Fatalf("error = %v, want missing file error", err)
	}

	found := false
	for _, v := range err.(*apperrors.AppError).Details {
		if strings.HasSuffix(v, filepath.Join("qrels", "test.tsv")) {
			found = true
		}
	}
	if !found {
		t.Errorf("missing qrels path not listed: %v", err.(*apperrors.AppError).Details)
	}
}

func TestLoad_ParseErrorPropagates(t *testing.T) {
	dir := writeDataset(t,
		"{bad json}\n",
		`{"_id":"q1","text":"y"}`+"\n",
		"q1\td1\t1\n")

	_, err := Load(dir, "test")
	if !apperrors.IsParse(err) {
		t.Fatalf("error = %v, want parse error", err)
	}
}

// Package validate checks BEIR-style dataset directories and reports
// sizes, samples and consistency warnings.
package validate

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/beirkit/beirkit/internal/bus"
	"github.com/beirkit/beirkit/internal/dataset"
	apperrors "github.com/beirkit/beirkit/internal/pkg/errors"
	"github.com/beirkit/beirkit/internal/pkg/logger"
)

// sampleTextLimit is how many characters of document text the report shows.
const sampleTextLimit = 400

// Report is the structured result of a validation run.
type Report struct {
	Dir         string                    `json:"dir"`
	Split       string                    `json:"split"`
	CorpusSize  int                       `json:"corpus_size"`
	QueriesSize int                       `json:"queries_size"`
	QrelsSize   int                       `json:"qrels_size"`
	Consistency dataset.ConsistencyReport `json:"consistency"`
	OK          bool                      `json:"ok"`
}

// Validator runs dataset validation. Output writers and the random
// source used for sample selection are injectable so runs are
// reproducible in tests; zero values fall back to stdout/stderr and a
// time-seeded source.
type Validator struct {
	Out io.Writer
	Err io.Writer

	// Rand selects the sample document and query. Nil means unseeded.
	Rand *rand.Rand

	Log *logger.Logger

	// Bus, when set, receives dataset lifecycle events.
	Bus bus.Bus
}

// New creates a validator with default output streams.
func New(log *logger.Logger) *Validator {
	return &Validator{
		Out: os.Stdout,
		Err: os.Stderr,
		Log: log,
	}
}

// Validate loads and checks the dataset without printing, returning a
// structured report. Used by the HTTP API.
func (v *Validator) Validate(ctx context.Context, dir, split string) (*Report, error) {
	ds, err := dataset.Load(dir, split)
	if err != nil {
		v.publish(ctx, bus.TopicDatasetInvalid, map[string]string{"dir": dir, "error": err.Error()})
		return nil, err
	}

	report := v.buildReport(ds)
	v.publish(ctx, bus.TopicDatasetValidated, report)
	return report, nil
}

// Run performs the full validation flow against a dataset directory,
// printing the report, and returns the process exit code: 0 on success,
// 1 for parse errors, 2 for missing files.
func (v *Validator) Run(ctx context.Context, dir, split string) int {
	out, errOut := v.writers()

	if split == "" {
		split = dataset.DefaultSplit
	}

	// Existence check comes before any parsing, all misses reported together.
	if missing := dataset.MissingFiles(dir, split); len(missing) > 0 {
		fmt.Fprintln(out, "ERROR: missing expected files:")
		for _, m := range missing {
			fmt.Fprintln(out, "  ", m)
		}
		v.publish(ctx, bus.TopicDatasetInvalid, map[string]any{"dir": dir, "missing": missing})
		return 2
	}

	ds, err := dataset.Load(dir, split)
	if err != nil {
		fmt.Fprintln(errOut, "ERROR:", err)
		v.publish(ctx, bus.TopicDatasetInvalid, map[string]string{"dir": dir, "error": err.Error()})
		if appErr, ok := err.(*apperrors.AppError); ok {
			return appErr.ExitCode()
		}
		return 1
	}

	fmt.Fprintf(out, "corpus size: %d\n", len(ds.Corpus))
	fmt.Fprintf(out, "queries size: %d\n", len(ds.Queries))
	fmt.Fprintf(out, "qrels size: %d\n", ds.Qrels.Len())

	v.printSampleDoc(out, ds)
	v.printSampleQuery(out, ds)

	report := v.buildReport(ds)
	if len(report.Consistency.MissingQueries) > 0 {
		fmt.Fprintf(out, "\nWARNING: qrels reference query ids not present in queries.jsonl: %v\n",
			report.Consistency.MissingQueries)
	}
	if len(report.Consistency.MissingDocs) > 0 {
		fmt.Fprintf(out, "\nWARNING: qrels reference doc ids not present in corpus.jsonl: %v\n",
			report.Consistency.MissingDocs)
	}

	fmt.Fprintln(out, "\nValidation completed successfully.")
	v.publish(ctx, bus.TopicDatasetValidated, report)
	return 0
}

func (v *Validator) buildReport(ds *dataset.Dataset) *Report {
	consistency := dataset.CheckConsistency(ds.Qrels, ds.Corpus, ds.Queries)
	return &Report{
		Dir:         ds.Dir,
		Split:       ds.Split,
		CorpusSize:  len(ds.Corpus),
		QueriesSize: len(ds.Queries),
		QrelsSize:   ds.Qrels.Len(),
		Consistency: consistency,
		OK:          consistency.OK(),
	}
}

func (v *Validator) printSampleDoc(out io.Writer, ds *dataset.Dataset) {
	docID, ok := v.sampleKey(recordKeys(ds.Corpus))
	if !ok {
		return
	}

	doc := ds.Corpus[docID]
	fmt.Fprintln(out, "\nSample doc id:", docID)
	fmt.Fprintln(out, "Fields:", doc.FieldNames())
	fmt.Fprintln(out, "Title:", doc.Title())
	fmt.Fprintf(out, "Text (first %d chars): %s\n", sampleTextLimit, truncate(doc.Text(), sampleTextLimit))
}

func (v *Validator) printSampleQuery(out io.Writer, ds *dataset.Dataset) {
	queryID, ok := v.sampleKey(recordKeys(ds.Queries))
	if !ok {
		return
	}

	q := ds.Queries[queryID]
	fmt.Fprintln(out, "\nSample query id:", queryID)
	fmt.Fprintln(out, "Query text:", q.QueryText())
	fmt.Fprintln(out, "qrels for sample query:", ds.Qrels.ForQuery(queryID))
}

// sampleKey picks one key uniformly at random. Keys are sorted first so a
// seeded source always selects the same record.
func (v *Validator) sampleKey(keys []string) (string, bool) {
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)

	rng := v.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return keys[rng.Intn(len(keys))], true
}

func (v *Validator) publish(ctx context.Context, topic string, payload any) {
	if v.Bus == nil {
		return
	}
	if err := v.Bus.Publish(ctx, topic, bus.NewEvent(topic, "validator", payload)); err != nil && v.Log != nil {
		v.Log.WithError(err).Warn("publishing validation event", "topic", topic)
	}
}

func (v *Validator) writers() (io.Writer, io.Writer) {
	out, errOut := v.Out, v.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return out, errOut
}

func recordKeys(m map[string]dataset.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// truncate returns the first n characters of s, whole runes only.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

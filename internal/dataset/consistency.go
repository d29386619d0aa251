package dataset

// ConsistencyReport lists qrels references that do not resolve against
// the loaded corpus and query sets. Findings are warnings, never errors.
type ConsistencyReport struct {
	// MissingQueries are qrels query ids absent from queries.jsonl.
	MissingQueries []string `json:"missing_queries"`

	// MissingDocs are qrels doc ids absent from corpus.jsonl,
	// deduplicated, in first-reference order.
	MissingDocs []string `json:"missing_docs"`
}

// OK reports whether the dataset is internally consistent.
func (r ConsistencyReport) OK() bool {
	return len(r.MissingQueries) == 0 && len(r.MissingDocs) == 0
}

// CheckConsistency cross-references qrels against the corpus and query
// mappings. Pure computation: always returns, possibly with empty lists.
func CheckConsistency(qrels *Qrels, corpus, queries map[string]Record) ConsistencyReport {
	var report ConsistencyReport

	seenDocs := make(map[string]struct{})
	for _, queryID := range qrels.Queries() {
		if _, ok := queries[queryID]; !ok {
			report.MissingQueries = append(report.MissingQueries, queryID)
		}

		for _, docID := range qrels.Docs(queryID) {
			if _, ok := corpus[docID]; ok {
				continue
			}
			if _, dup := seenDocs[docID]; dup {
				continue
			}
			seenDocs[docID] = struct{}{}
			report.MissingDocs = append(report.MissingDocs, docID)
		}
	}

	return report
}

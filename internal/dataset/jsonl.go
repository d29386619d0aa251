package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/beirkit/beirkit/internal/pkg/errors"
)

// LoadRecords reads a line-delimited JSON file and returns a mapping
// from string id to Record. Blank lines are skipped. Invalid JSON or a
// missing identifier field aborts the whole load with a parse error
// naming the file and 1-based line number. Duplicate ids are resolved
// last-write-wins.
func LoadRecords(path string) (map[string]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	items := make(map[string]Record)

	scanner := bufio.NewScanner(f)
	// Long documents: a single record can far exceed the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, apperrors.ParseError(path, lineNo, fmt.Sprintf("invalid JSON: %v", err))
		}

		id, err := extractID(obj)
		if err != nil {
			return nil, apperrors.ParseError(path, lineNo, fmt.Sprintf("no id ('_id' or 'id') found: %v", err))
		}

		items[id] = newRecord(id, obj)
	}

	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, fmt.Sprintf("reading %s", path), err)
	}

	return items, nil
}

// extractID finds the record identifier using the recognized id fields in
// priority order and coerces it to string form.
func extractID(obj map[string]any) (string, error) {
	for _, k := range idKeys {
		if v, ok := obj[k]; ok {
			return coerceID(v)
		}
	}
	return "", fmt.Errorf("missing identifier field")
}

package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := New(CodeParse, "bad line")
	if got := err.Error(); got != "PARSE_ERROR: bad line" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Wrap(CodeInternal, "load failed", fmt.Errorf("disk gone"))
	if !strings.Contains(wrapped.Error(), "disk gone") {
		t.Errorf("wrapped Error() = %q, want cause included", wrapped.Error())
	}
}

func TestParseError(t *testing.T) {
	err := ParseError("corpus.jsonl", 7, "invalid JSON")
	if !IsParse(err) {
		t.Error("IsParse = false, want true")
	}
	if !strings.Contains(err.Message, "line 7") {
		t.Errorf("message %q missing line number", err.Message)
	}
	if err.Details["file"] != "corpus.jsonl" {
		t.Errorf("file detail = %q", err.Details["file"])
	}
	if err.ExitCode() != 1 {
		t.Errorf("ExitCode = %d, want 1", err.ExitCode())
	}
}

func TestMissingFileError(t *testing.T) {
	err := MissingFileError([]string{"a/corpus.jsonl", "a/qrels/test.tsv"})
	if !IsMissingFile(err) {
		t.Error("IsMissingFile = false, want true")
	}
	if err.ExitCode() != 2 {
		t.Errorf("ExitCode = %d, want 2", err.ExitCode())
	}
	if len(err.Details) != 2 {
		t.Errorf("Details = %v, want 2 paths", err.Details)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{CodeParse, http.StatusBadRequest},
		{CodeMissingFile, http.StatusNotFound},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeEncoderError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := New(tt.code, "x").HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestWriteError_Sanitizes(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("secret internal path /etc/passwd"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "passwd") {
		t.Error("internal error details leaked to client")
	}
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ParseError("queries.jsonl", 3, "no id"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), CodeParse) {
		t.Error("response missing error code")
	}
}

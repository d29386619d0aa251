package server

import (
	"encoding/json"
	"net/http"

	"github.com/beirkit/beirkit/internal/dataset"
	"github.com/beirkit/beirkit/internal/evaluation"
	apperrors "github.com/beirkit/beirkit/internal/pkg/errors"
)

// maxRequestBody caps request body size at 1 MB.
const maxRequestBody = 1 << 20

// ValidateRequest is the body of POST /v1/validate.
type ValidateRequest struct {
	Dir   string `json:"dir"`
	Split string `json:"split"`
}

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Dir    string `json:"dir"`
	Split  string `json:"split"`
	TopK   int    `json:"top_k"`
	Metric string `json:"metric,omitempty"` // optional extra metric: "mrr" or "ap"
}

// EvaluateResponse is the body returned by POST /v1/evaluate.
type EvaluateResponse struct {
	Dir     string             `json:"dir"`
	Split   string             `json:"split"`
	Queries int                `json:"queries"`
	Metrics *evaluation.Result `json:"metrics"`
	Extra   evaluation.Summary `json:"extra,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	dir, split := s.resolveDataset(req.Dir, req.Split)

	report, err := s.validator.Validate(r.Context(), dir, split)
	if err != nil {
		s.log.WithDataset(dir).WithError(err).Warn("validation failed")
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	dir, split := s.resolveDataset(req.Dir, req.Split)

	ds, err := dataset.Load(dir, split)
	if err != nil {
		s.log.WithDataset(dir).WithError(err).Warn("dataset load failed")
		apperrors.WriteError(w, err)
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.Eval.TopK
	}

	results, err := s.evaluator.Retrieve(r.Context(), ds.Corpus, ds.Queries, topK)
	if err != nil {
		s.log.WithDataset(dir).WithError(err).Error("retrieval failed")
		apperrors.WriteError(w, err)
		return
	}

	metrics, err := s.evaluator.Evaluate(r.Context(), ds.Qrels, results)
	if err != nil {
		apperrors.WriteError(w, apperrors.ValidationError(err.Error()))
		return
	}

	resp := EvaluateResponse{
		Dir:     dir,
		Split:   split,
		Queries: len(ds.Queries),
		Metrics: metrics,
	}

	if req.Metric != "" {
		extra, err := s.evaluator.EvaluateCustom(ds.Qrels, results, req.Metric)
		if err != nil {
			apperrors.WriteError(w, apperrors.InvalidRequestError(err.Error()))
			return
		}
		resp.Extra = extra
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apperrors.WriteError(w, apperrors.InvalidRequestError("invalid JSON body"))
		return false
	}
	return true
}

// resolveDataset fills in configured defaults for omitted fields.
func (s *Server) resolveDataset(dir, split string) (string, string) {
	if dir == "" {
		dir = s.cfg.Dataset.Dir
	}
	if split == "" {
		split = s.cfg.Dataset.Split
	}
	return dir, split
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

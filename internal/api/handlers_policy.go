package api

import (
	"net/http"

	"github.com/ztsentinel/sentinel/internal/infra/metrics"
)

func (s *Server) handlePolicyEvaluate(w http.ResponseWriter, r *http.Request) {
	var ctx map[string]any
	if err := decodeJSON(r, &ctx); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result := s.Policy.Evaluate(ctx)
	metrics.PolicyEvaluations.WithLabelValues(string(result.Decision)).Inc()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePolicyList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Policy.PolicySummary())
}

func (s *Server) handlePolicyConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts := s.Policy.DetectConflicts()
	metrics.PolicyConflicts.Set(float64(len(conflicts)))
	writeJSON(w, http.StatusOK, conflicts)
}

package api

import (
	"net/http"
	"time"

	"github.com/ztsentinel/sentinel/internal/infra/metrics"
	"github.com/ztsentinel/sentinel/internal/infra/risk"
)

type riskScoreRequest struct {
	EntityID      string  `json:"entity_id"`
	BehaviorScore float64 `json:"behavior_score"`
	DeviceHealth  float64 `json:"device_health"`
	NetworkTrust  float64 `json:"network_trust"`
	SourceIP      string  `json:"source_ip"`
	AuthStrength  float64 `json:"auth_strength"`
}

func (s *Server) handleRiskScore(w http.ResponseWriter, r *http.Request) {
	var req riskScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EntityID == "" {
		writeError(w, http.StatusBadRequest, "entity_id is required")
		return
	}
	if req.DeviceHealth == 0 {
		req.DeviceHealth = 1.0
	}

	start := time.Now()
	score := s.Risk.Calculate(risk.CalculateInput{
		EntityID:      req.EntityID,
		BehaviorScore: req.BehaviorScore,
		DeviceHealth:  req.DeviceHealth,
		NetworkTrust:  req.NetworkTrust,
		SourceIP:      req.SourceIP,
		AuthStrength:  req.AuthStrength,
	})
	metrics.RiskScoresCalculated.WithLabelValues(string(score.RiskLevel)).Inc()
	metrics.RiskCalculationLatency.Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleRiskSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Risk.PopulationRiskSummary())
}

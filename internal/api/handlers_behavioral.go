package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ztsentinel/sentinel/internal/domain"
	"github.com/ztsentinel/sentinel/internal/infra/behavioral"
	"github.com/ztsentinel/sentinel/internal/infra/metrics"
)

type behavioralEventRequest struct {
	EntityID        string             `json:"entity_id"`
	EntityKind      string             `json:"entity_kind"`
	Hour            *int               `json:"hour"`
	DayOfWeek       *int               `json:"day_of_week"`
	Resource        string             `json:"resource"`
	Action          string             `json:"action"`
	SessionDuration *float64           `json:"session_duration"`
	Location        string             `json:"location"`
	SourceIP        string             `json:"source_ip"`
	Features        map[string]float64 `json:"features"`
}

func (req behavioralEventRequest) toEvent() behavioral.Event {
	hour, dow := -1, -1
	if req.Hour != nil {
		hour = *req.Hour
	}
	if req.DayOfWeek != nil {
		dow = *req.DayOfWeek
	}
	kind := domain.EntityKind(req.EntityKind)
	if kind == "" {
		kind = domain.EntityUser
	}
	return behavioral.Event{
		EntityKind:      kind,
		Hour:            hour,
		DayOfWeek:       dow,
		Resource:        req.Resource,
		Action:          req.Action,
		SessionDuration: req.SessionDuration,
		Location:        req.Location,
		SourceIP:        req.SourceIP,
		Features:        req.Features,
	}
}

func (s *Server) handleBehavioralObserve(w http.ResponseWriter, r *http.Request) {
	var req behavioralEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EntityID == "" {
		writeError(w, http.StatusBadRequest, "entity_id is required")
		return
	}

	event := req.toEvent()
	s.Baseline.Observe(req.EntityID, event)
	metrics.BaselineObservations.WithLabelValues(string(event.EntityKind)).Inc()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "observed",
		"entity_id": req.EntityID,
	})
}

func (s *Server) handleBehavioralAnalyze(w http.ResponseWriter, r *http.Request) {
	var req behavioralEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EntityID == "" {
		writeError(w, http.StatusBadRequest, "entity_id is required")
		return
	}

	result := s.Anomaly.Analyze(req.EntityID, req.toEvent())
	metrics.AnomalyScores.Observe(result.AnomalyScore)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBehavioralProfile(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "id")
	summary, ok := s.Baseline.ProfileSummary(entityID)
	if !ok {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

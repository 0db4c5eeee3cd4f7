package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ztsentinel/sentinel/internal/infra/lateral"
	"github.com/ztsentinel/sentinel/internal/infra/metrics"
)

func (s *Server) handleIdentitySummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Identity.Summary())
}

func (s *Server) handleLateralDetect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	start := time.Now()
	alerts := s.Lateral.Detect(ctx)
	metrics.DetectionLatency.Observe(time.Since(start).Seconds())
	metrics.GraphNodes.Set(float64(len(s.Lateral.Graph().Nodes())))
	for _, a := range alerts {
		metrics.LateralAlerts.WithLabelValues(a.Type).Inc()
	}

	if alerts == nil {
		alerts = []lateral.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

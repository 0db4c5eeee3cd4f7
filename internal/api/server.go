// Package api is the composition root and HTTP facade for sentinel.
// It wires the behavioral, risk, access, lateral, policy, identity, and
// microsegmentation services into a single chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ztsentinel/sentinel/internal/health"
	"github.com/ztsentinel/sentinel/internal/infra/access"
	"github.com/ztsentinel/sentinel/internal/infra/behavioral"
	"github.com/ztsentinel/sentinel/internal/infra/identity"
	"github.com/ztsentinel/sentinel/internal/infra/lateral"
	"github.com/ztsentinel/sentinel/internal/infra/microseg"
	"github.com/ztsentinel/sentinel/internal/infra/policy"
	"github.com/ztsentinel/sentinel/internal/infra/risk"
)

// Server is sentinel's HTTP API server: it owns no business state of
// its own, only references to the services constructed once by the
// caller (internal/daemon) and shared across requests.
type Server struct {
	log *logrus.Logger

	Baseline    *behavioral.BaselineStore
	Anomaly     *behavioral.AnomalyDetector
	Patterns    *behavioral.PatternAnalyzer
	Sessions    *behavioral.SessionAnalyzer
	Risk        *risk.Engine
	Access      *access.Engine
	Verifier    *access.ContinuousVerifier
	Lateral     *lateral.Detector
	Policy      *policy.Engine
	Identity    *identity.Registry
	Flows       *microseg.FlowAnalyzer
	Segments    *microseg.SegmentManager
	Recommender *microseg.PolicyRecommender
	Health      *health.Checker

	metricsEnabled bool
	version        string
}

// Services bundles every stateful dependency NewServer needs. Every
// field is constructed once by the caller and passed by reference —
// the server never holds a global singleton.
type Services struct {
	Log         *logrus.Logger
	Baseline    *behavioral.BaselineStore
	Anomaly     *behavioral.AnomalyDetector
	Patterns    *behavioral.PatternAnalyzer
	Sessions    *behavioral.SessionAnalyzer
	Risk        *risk.Engine
	Access      *access.Engine
	Verifier    *access.ContinuousVerifier
	Lateral     *lateral.Detector
	Policy      *policy.Engine
	Identity    *identity.Registry
	Flows       *microseg.FlowAnalyzer
	Segments    *microseg.SegmentManager
	Recommender *microseg.PolicyRecommender
	Health      *health.Checker
	Version     string
}

// NewServer builds the composition root from the given services.
func NewServer(s Services) *Server {
	return &Server{
		log:         s.Log,
		Baseline:    s.Baseline,
		Anomaly:     s.Anomaly,
		Patterns:    s.Patterns,
		Sessions:    s.Sessions,
		Risk:        s.Risk,
		Access:      s.Access,
		Verifier:    s.Verifier,
		Lateral:     s.Lateral,
		Policy:      s.Policy,
		Identity:    s.Identity,
		Flows:       s.Flows,
		Segments:    s.Segments,
		Recommender: s.Recommender,
		Health:      s.Health,
		version:     s.Version,
	}
}

// EnableMetrics mounts the Prometheus /metrics endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.loggingMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/access", func(r chi.Router) {
			r.Post("/decide", s.handleAccessDecide)
			r.Get("/decisions", s.handleAccessDecisions)
			r.Get("/stats", s.handleAccessStats)
		})
		r.Route("/risk", func(r chi.Router) {
			r.Post("/score", s.handleRiskScore)
			r.Get("/summary", s.handleRiskSummary)
		})
		r.Route("/policy", func(r chi.Router) {
			r.Post("/evaluate", s.handlePolicyEvaluate)
			r.Get("/list", s.handlePolicyList)
			r.Get("/conflicts", s.handlePolicyConflicts)
		})
		r.Route("/behavioral", func(r chi.Router) {
			r.Post("/observe", s.handleBehavioralObserve)
			r.Post("/analyze", s.handleBehavioralAnalyze)
			r.Get("/profile/{id}", s.handleBehavioralProfile)
		})
		r.Get("/identity/summary", s.handleIdentitySummary)
		r.Get("/lateral/detect", s.handleLateralDetect)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/dashboard", s.handleDashboard)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.Health != nil && !s.Health.IsHealthy() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.log != nil {
			s.log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Debug("handled request")
		}
	})
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ztsentinel/sentinel/internal/health"
	"github.com/ztsentinel/sentinel/internal/infra/access"
	"github.com/ztsentinel/sentinel/internal/infra/behavioral"
	"github.com/ztsentinel/sentinel/internal/infra/identity"
	"github.com/ztsentinel/sentinel/internal/infra/lateral"
	"github.com/ztsentinel/sentinel/internal/infra/microseg"
	"github.com/ztsentinel/sentinel/internal/infra/policy"
	"github.com/ztsentinel/sentinel/internal/infra/risk"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	baseline := behavioral.NewBaselineStore(behavioral.DefaultDecayFactor)
	anomaly := behavioral.NewAnomalyDetector(baseline, 0.7, behavioral.DefaultDetectorWeights())
	patterns := behavioral.NewPatternAnalyzer(baseline)
	sessions := behavioral.NewSessionAnalyzer(3, time.Hour, 900)

	riskEngine := risk.NewEngine(risk.DefaultWeights(), risk.DefaultThresholds(), nil)
	accessEngine := access.NewEngine(access.DefaultThresholds(), access.DefaultTrustWeights())
	verifier := access.NewContinuousVerifier(accessEngine, access.DefaultReverifyInterval)

	detector := lateral.NewDetector(lateral.DefaultDetectorConfig())
	policyEngine := policy.NewEngine()
	registry := identity.NewRegistry()

	flows := microseg.NewFlowAnalyzer()
	segments := microseg.NewSegmentManager()
	recommender := microseg.NewPolicyRecommender(flows, segments)

	checker := health.NewChecker(time.Minute,
		health.StoreSizeCheck("baseline", func() int { return len(baseline.AllEntityIDs()) }, 100000))
	// Run exits immediately on a canceled context, but always executes
	// one pass first so /health has statuses to report.
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	checker.Run(canceled)

	return NewServer(Services{
		Baseline:    baseline,
		Anomaly:     anomaly,
		Patterns:    patterns,
		Sessions:    sessions,
		Risk:        riskEngine,
		Access:      accessEngine,
		Verifier:    verifier,
		Lateral:     detector,
		Policy:      policyEngine,
		Identity:    registry,
		Flows:       flows,
		Segments:    segments,
		Recommender: recommender,
		Health:      checker,
		Version:     "test",
	})
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestAccessDecideRequiresEntityID(t *testing.T) {
	srv := newTestServer(t)
	body := bytes.NewBufferString(`{"resource": "db"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/access/decide", body)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAccessDecideReturnsDecision(t *testing.T) {
	srv := newTestServer(t)
	body := bytes.NewBufferString(`{
		"entity_id": "u1", "resource": "db", "action": "read",
		"authentication_method": "totp", "mfa_verified": true,
		"network_zone": "internal"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/access/decide", body)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var decision map[string]any
	decodeBody(t, rr, &decision)
	if decision["decision"] == nil {
		t.Fatalf("expected a decision field, got %+v", decision)
	}
}

func TestBehavioralObserveThenProfile(t *testing.T) {
	srv := newTestServer(t)
	body := bytes.NewBufferString(`{"entity_id": "u1", "resource": "db", "action": "read", "hour": 10}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/behavioral/observe", body)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/behavioral/profile/u1", nil)
	rr2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr2, req2)
	if rr2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr2.Code)
	}
}

func TestBehavioralProfileMissingIs404(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/behavioral/profile/unknown", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestPolicyListEmpty(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/policy/list", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestLateralDetectEmptyGraph(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lateral/detect", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestDashboardRenders(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Fatal("expected non-empty dashboard body")
	}
}

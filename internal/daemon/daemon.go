// Package daemon wires sentinel's services into a runnable process:
// it owns the configuration, constructs every stateful store exactly
// once, and serves the HTTP API over them.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ztsentinel/sentinel/internal/api"
	"github.com/ztsentinel/sentinel/internal/config"
	"github.com/ztsentinel/sentinel/internal/health"
	"github.com/ztsentinel/sentinel/internal/infra/access"
	"github.com/ztsentinel/sentinel/internal/infra/behavioral"
	"github.com/ztsentinel/sentinel/internal/infra/identity"
	"github.com/ztsentinel/sentinel/internal/infra/lateral"
	"github.com/ztsentinel/sentinel/internal/infra/microseg"
	"github.com/ztsentinel/sentinel/internal/infra/policy"
	"github.com/ztsentinel/sentinel/internal/infra/risk"
	"github.com/ztsentinel/sentinel/internal/logging"
)

// Daemon is sentinel's core runtime: configuration plus every
// constructed service, wired once and shared by reference.
type Daemon struct {
	Config config.Config
	Log    *logrus.Logger

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
	Server      *api.Server

	cancel context.CancelFunc
}

// version is set by cmd/sentinel/main.go at build time.
var version = "dev"

// SetVersion records the binary version surfaced over the API.
func SetVersion(v string) { version = v }

// New builds a Daemon from the on-disk configuration (or defaults).
func New() (*Daemon, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds a Daemon from an explicit configuration,
// constructing every stateful service exactly once.
func NewWithConfig(cfg config.Config) (*Daemon, error) {
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	baseline := behavioral.NewBaselineStore(behavioral.DefaultDecayFactor)
	anomaly := behavioral.NewAnomalyDetector(baseline, 0.7, behavioral.DefaultDetectorWeights())
	patterns := behavioral.NewPatternAnalyzer(baseline)
	sessions := behavioral.NewSessionAnalyzer(behavioral.DefaultMaxConcurrentSessions, behavioral.DefaultIdleTimeout, behavioral.DefaultImpossibleTravelKmPerHour)

	riskWeights := risk.DefaultWeights()
	riskWeights.Behavior = cfg.Risk.BehavioralWeight
	riskWeights.Device = cfg.Risk.DeviceWeight
	riskWeights.Network = cfg.Risk.NetworkWeight
	riskWeights.Threat = cfg.Risk.ThreatWeight
	riskEngine := risk.NewEngine(riskWeights, risk.DefaultThresholds(), nil)

	accessThresholds := access.Thresholds{
		Deny:      cfg.Access.DenyThreshold,
		Challenge: cfg.Access.ChallengeThreshold,
		Restrict:  cfg.Access.RestrictThreshold,
	}
	accessEngine := access.NewEngine(accessThresholds, access.DefaultTrustWeights())
	reverifyInterval := time.Duration(cfg.Access.ReverifyIntervalMin) * time.Minute
	verifier := access.NewContinuousVerifier(accessEngine, reverifyInterval)

	detector := lateral.NewDetector(lateral.DefaultDetectorConfig())
	policyEngine := policy.NewEngine()
	registry := identity.NewRegistry()

	flows := microseg.NewFlowAnalyzer()
	segments := microseg.NewSegmentManager()
	recommender := microseg.NewPolicyRecommender(flows, segments)

	checker := health.NewChecker(health.DefaultInterval,
		health.StoreSizeCheck("baseline_profiles", func() int { return len(baseline.AllEntityIDs()) }, 1_000_000),
		health.StoreSizeCheck("policies", func() int { return len(policyEngine.AllPolicies()) }, 100_000),
	)

	srv := api.NewServer(api.Services{
		Log:         log,
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
		Version:     version,
	})
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:      cfg,
		Log:         log,
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
		Server:      srv,
	}, nil
}

// Serve starts the health checker and HTTP API, blocking until the
// process receives SIGINT/SIGTERM or ctx is canceled.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)
	if d.Config.Maintenance.Enabled {
		go d.runMaintenance(ctx)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	d.Log.WithField("addr", addr).Info("sentinel serving")
	if d.Config.Telemetry.Prometheus {
		d.Log.WithField("addr", addr).Info("metrics exposed at /metrics")
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// runMaintenance periodically decays baseline distributions and prunes
// expired session state. DecayProfiles has no built-in scheduler — the
// baseline store stays correct whether or not this loop ever runs.
func (d *Daemon) runMaintenance(ctx context.Context) {
	interval := time.Duration(d.Config.Maintenance.DecayIntervalMin) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	maxAge := time.Duration(d.Config.Maintenance.SessionCleanupMaxAgeHr) * time.Hour

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Baseline.DecayProfiles()
			expired := d.Sessions.CleanupExpired(maxAge)
			d.Log.WithField("expired_sessions", expired).Debug("maintenance sweep complete")
		}
	}
}

// Close stops background work started by Serve, if any.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
}

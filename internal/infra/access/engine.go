// Package access makes and continuously re-evaluates risk-based
// access decisions from behavioral, device, network, and risk signals.
package access

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ztsentinel/sentinel/internal/domain"
)

// Thresholds are the baseline trust-score cut points for each decision.
// Effective thresholds are scaled up per-request by resource sensitivity.
type Thresholds struct {
	Deny      float64
	Challenge float64
	Restrict  float64
}

// DefaultThresholds mirrors the cut points used system-wide.
func DefaultThresholds() Thresholds {
	return Thresholds{Deny: 0.3, Challenge: 0.5, Restrict: 0.7}
}

// TrustWeights controls how the five trust signals are combined.
type TrustWeights struct {
	Auth     float64
	Device   float64
	Behavior float64
	Network  float64
	Risk     float64
}

// DefaultTrustWeights mirrors the balance used system-wide.
func DefaultTrustWeights() TrustWeights {
	return TrustWeights{Auth: 0.20, Device: 0.20, Behavior: 0.25, Network: 0.15, Risk: 0.20}
}

// Engine makes risk-based adaptive access decisions. Thread-safe via
// RWMutex; the decision log and resource sensitivity table are shared
// mutable state.
type Engine struct {
	mu                  sync.RWMutex
	thresholds          Thresholds
	weights             TrustWeights
	resourceSensitivity map[string]float64
	decisionLog         []domain.AccessDecision
	maxLog              int
	now                 func() time.Time
}

// DefaultMaxDecisionLog bounds the in-memory decision log so a
// long-running engine doesn't grow unbounded.
const DefaultMaxDecisionLog = 10000

// NewEngine builds an access decision engine with the given thresholds
// and trust weights.
func NewEngine(thresholds Thresholds, weights TrustWeights) *Engine {
	return &Engine{
		thresholds:          thresholds,
		weights:             weights,
		resourceSensitivity: make(map[string]float64),
		maxLog:              DefaultMaxDecisionLog,
		now:                 time.Now,
	}
}

// SetResourceSensitivity records resource's sensitivity level (clamped
// to [0, 1]); more sensitive resources raise all three thresholds.
func (e *Engine) SetResourceSensitivity(resource string, level float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resourceSensitivity[resource] = domain.Clamp01(level)
}

func (e *Engine) trustScore(ctx domain.AccessContext) float64 {
	scores := map[string]float64{
		"auth":     ctx.AuthStrength(),
		"device":   ctx.Device.HealthScore(),
		"behavior": domain.Max0(1.0 - ctx.BehaviorScore),
		"network":  ctx.NetworkTrust(),
		"risk":     domain.Max0(1.0 - ctx.RiskScore),
	}
	w := e.weights
	trust := scores["auth"]*w.Auth + scores["device"]*w.Device +
		scores["behavior"]*w.Behavior + scores["network"]*w.Network + scores["risk"]*w.Risk
	return domain.Round4(domain.Clamp01(trust))
}

// Evaluate scores an access context and returns the resulting decision.
func (e *Engine) Evaluate(ctx domain.AccessContext) domain.AccessDecision {
	trust := e.trustScore(ctx)

	e.mu.RLock()
	sensitivity, ok := e.resourceSensitivity[ctx.Resource]
	e.mu.RUnlock()
	if !ok {
		sensitivity = 0.5
	}

	effectiveDeny := e.thresholds.Deny * (1 + sensitivity*0.5)
	effectiveChallenge := e.thresholds.Challenge * (1 + sensitivity*0.3)
	effectiveRestrict := e.thresholds.Restrict * (1 + sensitivity*0.2)

	var decision domain.Decision
	var reasons, required []string

	switch {
	case trust < effectiveDeny:
		decision = domain.DecisionDeny
		reasons = append(reasons, fmt.Sprintf("Trust score %.2f below deny threshold %.2f", trust, effectiveDeny))
		if ctx.BehaviorScore > 0.7 {
			reasons = append(reasons, "High behavioral anomaly score")
		}
		if ctx.Device.HealthScore() < 0.5 {
			reasons = append(reasons, "Device health below minimum")
		}
	case trust < effectiveChallenge:
		decision = domain.DecisionChallenge
		reasons = append(reasons, fmt.Sprintf("Trust score %.2f requires step-up auth", trust))
		if !ctx.MFAVerified {
			required = append(required, "mfa_verification")
		}
		if ctx.Device.HealthScore() < 0.7 {
			required = append(required, "device_compliance_check")
		}
	case trust < effectiveRestrict:
		decision = domain.DecisionRestrict
		reasons = append(reasons, fmt.Sprintf("Trust score %.2f allows restricted access", trust))
		if ctx.Action == "write" || ctx.Action == "delete" || ctx.Action == "admin" {
			required = append(required, "reduce_to_read_only")
		}
	default:
		decision = domain.DecisionAllow
		reasons = append(reasons, fmt.Sprintf("Trust score %.2f meets threshold", trust))
	}

	confidence := math.Min(1.0, 2*math.Abs(trust-0.5))

	result := domain.AccessDecision{
		Decision:        decision,
		Confidence:      confidence,
		RiskLevel:       domain.Round4(1.0 - trust),
		Reasons:         reasons,
		RequiredActions: required,
		ContextSummary:  ctx.Summary(),
		Timestamp:       e.now(),
	}

	e.mu.Lock()
	e.decisionLog = append(e.decisionLog, result)
	if len(e.decisionLog) > e.maxLog {
		e.decisionLog = e.decisionLog[len(e.decisionLog)-e.maxLog:]
	}
	e.mu.Unlock()

	return result
}

// RecentDecisions returns up to the last n logged decisions, oldest first.
func (e *Engine) RecentDecisions(n int) []domain.AccessDecision {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if n > len(e.decisionLog) {
		n = len(e.decisionLog)
	}
	start := len(e.decisionLog) - n
	out := make([]domain.AccessDecision, n)
	copy(out, e.decisionLog[start:])
	return out
}

// DecisionStats tallies how many logged decisions fell into each bucket.
func (e *Engine) DecisionStats() map[domain.Decision]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	stats := map[domain.Decision]int{
		domain.DecisionAllow: 0, domain.DecisionDeny: 0,
		domain.DecisionChallenge: 0, domain.DecisionRestrict: 0,
	}
	for _, d := range e.decisionLog {
		stats[d.Decision]++
	}
	return stats
}

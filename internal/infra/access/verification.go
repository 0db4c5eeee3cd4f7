package access

import (
	"sync"
	"time"

	"github.com/ztsentinel/sentinel/internal/domain"
	"github.com/ztsentinel/sentinel/internal/infra/metrics"
)

// DefaultReverifyInterval is how often an active session should be
// re-evaluated.
const DefaultReverifyInterval = 5 * time.Minute

// sessionKey identifies a tracked verification state. A struct key
// (rather than a formatted "entity:session" string) avoids collisions
// when either component can itself contain a colon.
type sessionKey struct {
	EntityID  string
	SessionID string
}

// TrustTrend summarizes the recent direction of an entity's trust score.
type TrustTrend string

const (
	TrendStable    TrustTrend = "stable"
	TrendDegrading TrustTrend = "degrading"
	TrendImproving TrustTrend = "improving"
)

// VerificationState tracks one session's trust history across repeated
// reverifications.
type VerificationState struct {
	EntityID          string
	SessionID         string
	InitialDecision   domain.Decision
	CurrentDecision   domain.Decision
	LastVerified      time.Time
	VerificationCount int
	EscalationCount   int
	TrustHistory      []float64
}

// InitResult is returned by InitializeSession.
type InitResult struct {
	SessionID         string
	InitialDecision   domain.Decision
	RiskLevel         float64
	NextVerification  time.Time
}

// ReverifyResult is returned by Reverify.
type ReverifyResult struct {
	SessionID         string
	PreviousDecision  domain.Decision
	CurrentDecision   domain.Decision
	RiskLevel         float64
	TrustTrend        TrustTrend
	Escalated         bool
	VerificationCount int
}

// StateView is a read-only snapshot returned by GetState.
type StateView struct {
	EntityID          string
	SessionID         string
	CurrentDecision   domain.Decision
	VerificationCount int
	EscalationCount   int
	TrustTrend        TrustTrend
}

// ContinuousVerifier continuously re-evaluates access decisions during
// active sessions: trust is recomputed at each reverification from the
// current context rather than granted once at login.
type ContinuousVerifier struct {
	mu               sync.Mutex
	engine           *Engine
	reverifyInterval time.Duration
	states           map[sessionKey]*VerificationState
	now              func() time.Time
}

// NewContinuousVerifier builds a verifier over the given engine.
func NewContinuousVerifier(engine *Engine, reverifyInterval time.Duration) *ContinuousVerifier {
	if reverifyInterval <= 0 {
		reverifyInterval = DefaultReverifyInterval
	}
	return &ContinuousVerifier{
		engine:           engine,
		reverifyInterval: reverifyInterval,
		states:           make(map[sessionKey]*VerificationState),
		now:              time.Now,
	}
}

// InitializeSession evaluates ctx and begins continuous verification
// tracking for its session.
func (v *ContinuousVerifier) InitializeSession(ctx domain.AccessContext) InitResult {
	decision := v.engine.Evaluate(ctx)

	v.mu.Lock()
	v.states[sessionKey{ctx.EntityID, ctx.SessionID}] = &VerificationState{
		EntityID:        ctx.EntityID,
		SessionID:       ctx.SessionID,
		InitialDecision: decision.Decision,
		CurrentDecision: decision.Decision,
		LastVerified:    v.now(),
		TrustHistory:    []float64{1.0 - decision.RiskLevel},
	}
	metrics.ActiveSessions.Set(float64(len(v.states)))
	v.mu.Unlock()

	return InitResult{
		SessionID:        ctx.SessionID,
		InitialDecision:  decision.Decision,
		RiskLevel:        decision.RiskLevel,
		NextVerification: v.now().Add(v.reverifyInterval),
	}
}

func trustTrendOf(history []float64) TrustTrend {
	if len(history) < 2 {
		return TrendStable
	}
	recent := history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	var mean float64
	for _, t := range recent {
		mean += t
	}
	mean /= float64(len(recent))
	delta := mean - recent[0]
	switch {
	case delta < -0.1:
		return TrendDegrading
	case delta > 0.1:
		return TrendImproving
	default:
		return TrendStable
	}
}

// Reverify re-evaluates trust for an active session, detecting
// escalation via the decision's explicit strictness order — never a
// lexical comparison of decision names.
func (v *ContinuousVerifier) Reverify(ctx domain.AccessContext) ReverifyResult {
	key := sessionKey{ctx.EntityID, ctx.SessionID}

	v.mu.Lock()
	state, ok := v.states[key]
	v.mu.Unlock()
	if !ok {
		init := v.InitializeSession(ctx)
		return ReverifyResult{
			SessionID:        init.SessionID,
			PreviousDecision: init.InitialDecision,
			CurrentDecision:  init.InitialDecision,
			RiskLevel:        init.RiskLevel,
			TrustTrend:       TrendStable,
		}
	}

	decision := v.engine.Evaluate(ctx)
	newTrust := 1.0 - decision.RiskLevel

	v.mu.Lock()
	state.VerificationCount++
	state.LastVerified = v.now()
	state.TrustHistory = append(state.TrustHistory, newTrust)

	escalated := decision.Decision.StricterThan(state.CurrentDecision)
	if escalated {
		state.EscalationCount++
		metrics.SessionEscalations.Inc()
	}
	prevDecision := state.CurrentDecision
	state.CurrentDecision = decision.Decision
	trend := trustTrendOf(state.TrustHistory)
	count := state.VerificationCount
	v.mu.Unlock()

	return ReverifyResult{
		SessionID:         ctx.SessionID,
		PreviousDecision:  prevDecision,
		CurrentDecision:   decision.Decision,
		RiskLevel:         decision.RiskLevel,
		TrustTrend:        trend,
		Escalated:         escalated,
		VerificationCount: count,
	}
}

// NeedsReverification reports whether the session is due for another
// reverify pass (or has never been tracked at all).
func (v *ContinuousVerifier) NeedsReverification(entityID, sessionID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	state, ok := v.states[sessionKey{entityID, sessionID}]
	if !ok {
		return true
	}
	return v.now().Sub(state.LastVerified) > v.reverifyInterval
}

// GetState returns a snapshot of a tracked session's verification state.
func (v *ContinuousVerifier) GetState(entityID, sessionID string) (StateView, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	state, ok := v.states[sessionKey{entityID, sessionID}]
	if !ok {
		return StateView{}, false
	}
	return StateView{
		EntityID:          state.EntityID,
		SessionID:         state.SessionID,
		CurrentDecision:   state.CurrentDecision,
		VerificationCount: state.VerificationCount,
		EscalationCount:   state.EscalationCount,
		TrustTrend:        trustTrendOf(state.TrustHistory),
	}, true
}

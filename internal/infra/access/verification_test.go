package access

import (
	"testing"
	"time"

	"github.com/ztsentinel/sentinel/internal/domain"
)

func TestContinuousVerifier_InitializeSession(t *testing.T) {
	e := NewEngine(DefaultThresholds(), DefaultTrustWeights())
	v := NewContinuousVerifier(e, 0)

	ctx := goodContext("alice")
	ctx.SessionID = "sess-1"
	result := v.InitializeSession(ctx)

	if result.InitialDecision != domain.DecisionAllow {
		t.Errorf("InitialDecision = %v, want allow", result.InitialDecision)
	}

	state, ok := v.GetState("alice", "sess-1")
	if !ok {
		t.Fatal("GetState() ok = false, want true after InitializeSession")
	}
	if state.CurrentDecision != domain.DecisionAllow {
		t.Errorf("CurrentDecision = %v, want allow", state.CurrentDecision)
	}
}

func TestContinuousVerifier_Reverify_DetectsEscalation(t *testing.T) {
	e := NewEngine(DefaultThresholds(), DefaultTrustWeights())
	v := NewContinuousVerifier(e, 0)

	ctx := goodContext("alice")
	ctx.SessionID = "sess-1"
	v.InitializeSession(ctx)

	degraded := ctx
	degraded.BehaviorScore = 0.9
	degraded.RiskScore = 0.9
	degraded.MFAVerified = false
	degraded.AuthenticationMethod = "password"
	degraded.NetworkZone = "external"

	result := v.Reverify(degraded)
	if !result.Escalated {
		t.Errorf("Escalated = false, want true: previous=%v current=%v", result.PreviousDecision, result.CurrentDecision)
	}
	if !result.CurrentDecision.StricterThan(result.PreviousDecision) {
		t.Errorf("CurrentDecision %v is not stricter than PreviousDecision %v", result.CurrentDecision, result.PreviousDecision)
	}
}

func TestContinuousVerifier_Reverify_UnknownSessionInitializes(t *testing.T) {
	e := NewEngine(DefaultThresholds(), DefaultTrustWeights())
	v := NewContinuousVerifier(e, 0)

	ctx := goodContext("alice")
	ctx.SessionID = "never-seen"
	result := v.Reverify(ctx)
	if result.SessionID != "never-seen" {
		t.Errorf("SessionID = %q, want never-seen", result.SessionID)
	}
}

func TestContinuousVerifier_NeedsReverification(t *testing.T) {
	e := NewEngine(DefaultThresholds(), DefaultTrustWeights())
	v := NewContinuousVerifier(e, time.Hour)

	if !v.NeedsReverification("ghost", "sess") {
		t.Error("NeedsReverification() = false for untracked session, want true")
	}

	ctx := goodContext("alice")
	ctx.SessionID = "sess-1"
	v.InitializeSession(ctx)

	if v.NeedsReverification("alice", "sess-1") {
		t.Error("NeedsReverification() = true immediately after init, want false")
	}
}

func TestSessionKey_DistinguishesEntityAndSession(t *testing.T) {
	e := NewEngine(DefaultThresholds(), DefaultTrustWeights())
	v := NewContinuousVerifier(e, 0)

	ctxA := goodContext("alice:x")
	ctxA.SessionID = "y"
	v.InitializeSession(ctxA)

	ctxB := goodContext("alice")
	ctxB.SessionID = "x:y"
	v.InitializeSession(ctxB)

	if _, ok := v.GetState("alice:x", "y"); !ok {
		t.Error("GetState(alice:x, y) not found")
	}
	if _, ok := v.GetState("alice", "x:y"); !ok {
		t.Error("GetState(alice, x:y) not found")
	}
}

package access

import (
	"testing"

	"github.com/ztsentinel/sentinel/internal/domain"
)

func goodContext(entityID string) domain.AccessContext {
	return domain.AccessContext{
		EntityID:             entityID,
		Resource:             "billing-api",
		Action:               "read",
		Device:               domain.NewDeviceHealth(),
		AuthenticationMethod: "certificate",
		MFAVerified:          true,
		NetworkZone:          "internal",
	}
}

func TestEngine_Evaluate_GoodContext_Allows(t *testing.T) {
	e := NewEngine(DefaultThresholds(), DefaultTrustWeights())
	d := e.Evaluate(goodContext("alice"))
	if d.Decision != domain.DecisionAllow {
		t.Errorf("Decision = %v, want allow (confidence=%v, risk=%v)", d.Decision, d.Confidence, d.RiskLevel)
	}
}

func TestEngine_Evaluate_BadContext_Denies(t *testing.T) {
	e := NewEngine(DefaultThresholds(), DefaultTrustWeights())
	ctx := domain.AccessContext{
		EntityID:             "mallory",
		Resource:             "billing-api",
		Action:               "admin",
		Device:               domain.DeviceHealth{ComplianceScore: 0.0},
		AuthenticationMethod: "session_cookie",
		MFAVerified:          false,
		NetworkZone:          "external",
		BehaviorScore:        0.95,
		RiskScore:            0.9,
	}
	d := e.Evaluate(ctx)
	if d.Decision != domain.DecisionDeny {
		t.Errorf("Decision = %v, want deny", d.Decision)
	}
}

func TestEngine_SetResourceSensitivity_RaisesBar(t *testing.T) {
	e := NewEngine(DefaultThresholds(), DefaultTrustWeights())
	e.SetResourceSensitivity("public-wiki", 0.0)
	e.SetResourceSensitivity("crown-jewels", 1.0)

	ctx := goodContext("alice")
	ctx.AuthenticationMethod = "api_key"
	ctx.MFAVerified = false
	ctx.NetworkZone = "dmz"

	lenient := ctx
	lenient.Resource = "public-wiki"
	strict := ctx
	strict.Resource = "crown-jewels"

	dLenient := e.Evaluate(lenient)
	dStrict := e.Evaluate(strict)

	if dLenient.Decision != domain.DecisionAllow {
		t.Errorf("lenient Decision = %v, want allow", dLenient.Decision)
	}
	if !dStrict.Decision.StricterThan(dLenient.Decision) {
		t.Errorf("strict Decision = %v, want stricter than %v against a maximally sensitive resource",
			dStrict.Decision, dLenient.Decision)
	}
}

func TestEngine_DecisionStats(t *testing.T) {
	e := NewEngine(DefaultThresholds(), DefaultTrustWeights())
	e.Evaluate(goodContext("alice"))
	e.Evaluate(goodContext("bob"))

	stats := e.DecisionStats()
	if stats[domain.DecisionAllow] != 2 {
		t.Errorf("DecisionStats()[allow] = %d, want 2", stats[domain.DecisionAllow])
	}
}

func TestEngine_RecentDecisions_Caps(t *testing.T) {
	e := NewEngine(DefaultThresholds(), DefaultTrustWeights())
	for i := 0; i < 5; i++ {
		e.Evaluate(goodContext("alice"))
	}
	if got := e.RecentDecisions(2); len(got) != 2 {
		t.Errorf("RecentDecisions(2) length = %d, want 2", len(got))
	}
}

// Package domain holds the shared types passed between the behavioral,
// risk, access, lateral, and policy subsystems. It carries no business
// logic of its own — that lives in internal/infra/*.
package domain

import "time"

// Decision is the typed outcome of an access evaluation.
type Decision string

const (
	DecisionAllow     Decision = "allow"
	DecisionDeny      Decision = "deny"
	DecisionChallenge Decision = "challenge"
	DecisionRestrict  Decision = "restrict"
)

// strictness orders decisions from least to most restrictive. Do NOT
// compare Decision values lexically — "challenge" < "deny" would hold by
// accident for these four labels but isn't a general rule.
var strictness = map[Decision]int{
	DecisionAllow:     0,
	DecisionRestrict:  1,
	DecisionChallenge: 2,
	DecisionDeny:      3,
}

// StricterThan reports whether d is a stricter decision than other.
func (d Decision) StricterThan(other Decision) bool {
	return strictness[d] > strictness[other]
}

// authStrengthTable maps an authentication method to a base strength score.
var authStrengthTable = map[string]float64{
	"certificate":    0.9,
	"hardware_token": 0.85,
	"biometric":      0.8,
	"totp":           0.7,
	"api_key":        0.5,
	"password":       0.4,
	"session_cookie": 0.3,
}

// networkTrustTable maps a network zone identifier to a trust score.
var networkTrustTable = map[string]float64{
	"internal": 0.7,
	"vpn":      0.6,
	"dmz":      0.4,
	"external": 0.2,
}

// DeviceHealth is the device security posture assessment carried on every
// AccessContext.
type DeviceHealth struct {
	DeviceID        string    `json:"device_id"`
	OSPatched       bool      `json:"os_patched"`
	AntivirusActive bool      `json:"antivirus_active"`
	DiskEncrypted   bool      `json:"disk_encrypted"`
	FirewallEnabled bool      `json:"firewall_enabled"`
	ComplianceScore float64   `json:"compliance_score"`
	LastCheck       time.Time `json:"last_check"`
}

// NewDeviceHealth returns a DeviceHealth with every check passing, the
// neutral default used when a caller doesn't supply one.
func NewDeviceHealth() DeviceHealth {
	return DeviceHealth{
		OSPatched:       true,
		AntivirusActive: true,
		DiskEncrypted:   true,
		FirewallEnabled: true,
		ComplianceScore: 1.0,
		LastCheck:       time.Now(),
	}
}

// HealthScore combines the four boolean checks and the compliance score:
// 0.6 * (booleans_true/4) + 0.4 * compliance_score, rounded to 4 decimals.
func (d DeviceHealth) HealthScore() float64 {
	checks := 0
	for _, ok := range []bool{d.OSPatched, d.AntivirusActive, d.DiskEncrypted, d.FirewallEnabled} {
		if ok {
			checks++
		}
	}
	binary := float64(checks) / 4.0
	return Round4(binary*0.6 + d.ComplianceScore*0.4)
}

// AccessContext captures every contextual signal used to make a single
// access decision.
type AccessContext struct {
	EntityID             string
	Resource             string
	Action               string // read, write, delete, admin, ...
	SourceIP             string
	Location             string
	Hour                 int // -1 if unset
	DayOfWeek            int // -1 if unset
	Device               DeviceHealth
	BehaviorScore        float64 // 0 normal -> 1 anomalous
	RiskScore            float64
	SessionID            string
	AuthenticationMethod string
	MFAVerified          bool
	NetworkZone          string
	Timestamp            time.Time
}

// AuthStrength derives authentication strength from method + MFA status,
// capped at 1.0.
func (c AccessContext) AuthStrength() float64 {
	base, ok := authStrengthTable[c.AuthenticationMethod]
	if !ok {
		base = 0.3
	}
	if c.MFAVerified {
		base = min(1.0, base+0.2)
	}
	return base
}

// NetworkTrust derives a trust score from the network zone identifier.
func (c AccessContext) NetworkTrust() float64 {
	if t, ok := networkTrustTable[c.NetworkZone]; ok {
		return t
	}
	return 0.1
}

// ContextSummary is a compact, JSON-friendly snapshot of an AccessContext,
// attached to each AccessDecision for audit purposes.
type ContextSummary struct {
	EntityID      string  `json:"entity_id"`
	Resource      string  `json:"resource"`
	Action        string  `json:"action"`
	SourceIP      string  `json:"source_ip"`
	Location      string  `json:"location"`
	DeviceHealth  float64 `json:"device_health"`
	BehaviorScore float64 `json:"behavior_score"`
	RiskScore     float64 `json:"risk_score"`
	AuthStrength  float64 `json:"auth_strength"`
	NetworkTrust  float64 `json:"network_trust"`
	MFAVerified   bool    `json:"mfa_verified"`
}

// Summary builds the ContextSummary attached to an AccessDecision.
func (c AccessContext) Summary() ContextSummary {
	return ContextSummary{
		EntityID:      c.EntityID,
		Resource:      c.Resource,
		Action:        c.Action,
		SourceIP:      c.SourceIP,
		Location:      c.Location,
		DeviceHealth:  c.Device.HealthScore(),
		BehaviorScore: c.BehaviorScore,
		RiskScore:     c.RiskScore,
		AuthStrength:  c.AuthStrength(),
		NetworkTrust:  c.NetworkTrust(),
		MFAVerified:   c.MFAVerified,
	}
}

// AccessDecision is the immutable outcome of a single access evaluation.
type AccessDecision struct {
	Decision        Decision       `json:"decision"`
	Confidence      float64        `json:"confidence"`
	RiskLevel       float64        `json:"risk_level"`
	Reasons         []string       `json:"reasons"`
	RequiredActions []string       `json:"required_actions"`
	ContextSummary  ContextSummary `json:"context"`
	Timestamp       time.Time      `json:"timestamp"`
}

package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Behavioral baseline errors
	ErrProfileNotFound = errors.New("baseline profile not found")

	// Access / session errors
	ErrSessionNotFound = errors.New("session not found")

	// Policy errors
	ErrPolicyNotFound = errors.New("policy not found")
	ErrRuleNotFound   = errors.New("rule not found")

	// Identity registry errors
	ErrIdentityNotFound = errors.New("identity not found")
	ErrDeviceNotFound   = errors.New("device not found")

	// Lateral movement errors
	ErrNodeNotFound = errors.New("graph node not found")
)

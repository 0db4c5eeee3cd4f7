package domain

import "time"

// Identity is a user or service identity tracked by the identity registry.
type Identity struct {
	IdentityID   string
	Name         string
	IdentityType EntityKind
	Email        string
	Department   string
	Roles        []string
	Groups       []string
	CreatedAt    time.Time
	LastActive   time.Time
	Enabled      bool
	RiskLevel    RiskLevel
	Metadata     map[string]string
}

// Device is a managed device tracked by the identity registry.
type Device struct {
	DeviceID   string
	Name       string
	DeviceType string // workstation, server, mobile, iot
	OS         string
	OSVersion  string
	OwnerID    string
	Managed    bool
	Compliant  bool
	Encrypted  bool
	LastSeen   time.Time
	TrustScore float64
}

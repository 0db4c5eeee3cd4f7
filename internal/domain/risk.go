package domain

import "time"

// RiskLevel is a coarse bucket for a composite risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskScore is the immutable output of a single risk calculation.
type RiskScore struct {
	EntityID       string             `json:"entity_id"`
	CompositeScore float64            `json:"composite_score"`
	RiskLevel      RiskLevel          `json:"risk_level"`
	Components     map[string]float64 `json:"components"`
	Factors        []string           `json:"factors"`
	Timestamp      time.Time          `json:"timestamp"`
}

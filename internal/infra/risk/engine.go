// Package risk computes composite risk scores from behavioral, device,
// network, threat-intel, and authentication signals.
package risk

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ztsentinel/sentinel/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Weights controls how the five risk components are combined.
type Weights struct {
	Behavior float64
	Device   float64
	Network  float64
	Threat   float64
	Auth     float64
}

// DefaultWeights mirrors the balance used across the system's other
// composite scores, weighting behavioral anomaly highest.
func DefaultWeights() Weights {
	return Weights{Behavior: 0.30, Device: 0.20, Network: 0.15, Threat: 0.20, Auth: 0.15}
}

// Thresholds maps a RiskLevel to the minimum composite score that earns it.
// Any score below Medium is low, so the Low value is not consulted.
type Thresholds struct {
	Low      float64
	Medium   float64
	High     float64
	Critical float64
}

// DefaultThresholds are the level cut points used system-wide.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 0.3, Medium: 0.5, High: 0.7, Critical: 0.9}
}

func (t Thresholds) level(composite float64) domain.RiskLevel {
	switch {
	case composite >= t.Critical:
		return domain.RiskCritical
	case composite >= t.High:
		return domain.RiskHigh
	case composite >= t.Medium:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// ThreatIntel is a minimal threat-intelligence store: malicious IPs, Tor
// exit nodes, and compromised credentials, each checkable in O(1).
type ThreatIntel struct {
	mu                      sync.RWMutex
	maliciousIPs            map[string]struct{}
	torExitNodes            map[string]struct{}
	compromisedCredentials  map[string]struct{}
}

// NewThreatIntel builds an empty threat intelligence store.
func NewThreatIntel() *ThreatIntel {
	return &ThreatIntel{
		maliciousIPs:           make(map[string]struct{}),
		torExitNodes:           make(map[string]struct{}),
		compromisedCredentials: make(map[string]struct{}),
	}
}

// AddMaliciousIP records ip as known-malicious.
func (t *ThreatIntel) AddMaliciousIP(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maliciousIPs[ip] = struct{}{}
}

// AddTorExitNode records ip as a known Tor exit node.
func (t *ThreatIntel) AddTorExitNode(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.torExitNodes[ip] = struct{}{}
}

// AddCompromisedCredential flags entityID's credentials as compromised.
func (t *ThreatIntel) AddCompromisedCredential(entityID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compromisedCredentials[entityID] = struct{}{}
}

// CheckIP returns 1.0 for a known-malicious IP, 0.7 for a Tor exit node,
// 0.0 otherwise.
func (t *ThreatIntel) CheckIP(ip string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.maliciousIPs[ip]; ok {
		return 1.0
	}
	if _, ok := t.torExitNodes[ip]; ok {
		return 0.7
	}
	return 0.0
}

// CheckCredential returns 0.9 if entityID's credentials are flagged
// compromised, 0.0 otherwise.
func (t *ThreatIntel) CheckCredential(entityID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.compromisedCredentials[entityID]; ok {
		return 0.9
	}
	return 0.0
}

// CalculateInput carries the signals RiskEngine.Calculate combines.
type CalculateInput struct {
	EntityID      string
	BehaviorScore float64
	DeviceHealth  float64 // 0 unhealthy -> 1 healthy; used as given, so an unset (zero) value counts as fully unhealthy
	NetworkTrust  float64 // 0 untrusted -> 1 trusted
	SourceIP      string
	AuthStrength  float64
}

// PopulationRiskSummary aggregates the latest risk score per entity.
type PopulationRiskSummary struct {
	TotalEntities     int                      `json:"total_entities"`
	MeanRisk          float64                  `json:"mean_risk"`
	MaxRisk           float64                  `json:"max_risk"`
	StdRisk           float64                  `json:"std_risk"`
	LevelDistribution map[domain.RiskLevel]int `json:"level_distribution"`
}

// Engine calculates composite risk scores and retains a bounded history
// per entity for trend queries. Thread-safe via RWMutex.
type Engine struct {
	mu         sync.RWMutex
	weights    Weights
	thresholds Thresholds
	threat     *ThreatIntel
	history    map[string][]domain.RiskScore
	now        func() time.Time
}

// NewEngine builds a risk engine with the given weights, thresholds, and
// threat intelligence store. Pass nil threat to get a fresh empty store.
func NewEngine(weights Weights, thresholds Thresholds, threat *ThreatIntel) *Engine {
	if threat == nil {
		threat = NewThreatIntel()
	}
	return &Engine{
		weights:    weights,
		thresholds: thresholds,
		threat:     threat,
		history:    make(map[string][]domain.RiskScore),
		now:        time.Now,
	}
}

// ThreatIntel returns the engine's threat intelligence store, so callers
// can feed it new indicators directly.
func (e *Engine) ThreatIntel() *ThreatIntel { return e.threat }

// Calculate computes entityID's composite risk score from the supplied
// signals, records it in the entity's history, and returns it.
func (e *Engine) Calculate(in CalculateInput) domain.RiskScore {
	var factors []string
	components := make(map[string]float64, 5)

	components["behavior"] = in.BehaviorScore
	if in.BehaviorScore > 0.7 {
		factors = append(factors, "High behavioral anomaly")
	}

	components["device"] = domain.Max0(1.0 - in.DeviceHealth)
	if in.DeviceHealth < 0.5 {
		factors = append(factors, "Poor device health")
	}

	components["network"] = domain.Max0(1.0 - in.NetworkTrust)
	if in.NetworkTrust < 0.3 {
		factors = append(factors, "Untrusted network")
	}

	threatScore := 0.0
	if in.SourceIP != "" {
		if ipScore := e.threat.CheckIP(in.SourceIP); ipScore > 0 {
			threatScore = ipScore
			factors = append(factors, "Threat intel match on IP")
		}
	}
	if credScore := e.threat.CheckCredential(in.EntityID); credScore > threatScore {
		threatScore = credScore
		factors = append(factors, "Compromised credential")
	}
	components["threat"] = threatScore

	components["auth"] = domain.Max0(1.0 - in.AuthStrength)
	if in.AuthStrength < 0.4 {
		factors = append(factors, "Weak authentication")
	}

	composite := components["behavior"]*e.weights.Behavior +
		components["device"]*e.weights.Device +
		components["network"]*e.weights.Network +
		components["threat"]*e.weights.Threat +
		components["auth"]*e.weights.Auth
	composite = domain.Round4(domain.Clamp01(composite))

	result := domain.RiskScore{
		EntityID:       in.EntityID,
		CompositeScore: composite,
		RiskLevel:      e.thresholds.level(composite),
		Components:     components,
		Factors:        factors,
		Timestamp:      e.now(),
	}

	e.mu.Lock()
	e.history[in.EntityID] = append(e.history[in.EntityID], result)
	e.mu.Unlock()

	return result
}

// RiskTrend returns up to the last n composite scores recorded for
// entityID, oldest first.
func (e *Engine) RiskTrend(entityID string, n int) []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	history := e.history[entityID]
	if n > len(history) {
		n = len(history)
	}
	start := len(history) - n
	out := make([]float64, 0, n)
	for _, r := range history[start:] {
		out = append(out, r.CompositeScore)
	}
	return out
}

// BatchCalculate runs Calculate over a slice of inputs in order.
func (e *Engine) BatchCalculate(inputs []CalculateInput) []domain.RiskScore {
	out := make([]domain.RiskScore, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, e.Calculate(in))
	}
	return out
}

// PopulationRiskSummary summarizes the latest risk score across every
// entity with recorded history.
func (e *Engine) PopulationRiskSummary() PopulationRiskSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.history) == 0 {
		return PopulationRiskSummary{}
	}

	ids := make([]string, 0, len(e.history))
	for id := range e.history {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	scores := make([]float64, 0, len(ids))
	levels := map[domain.RiskLevel]int{
		domain.RiskLow: 0, domain.RiskMedium: 0, domain.RiskHigh: 0, domain.RiskCritical: 0,
	}
	for _, id := range ids {
		hist := e.history[id]
		if len(hist) == 0 {
			continue
		}
		latest := hist[len(hist)-1]
		scores = append(scores, latest.CompositeScore)
		levels[latest.RiskLevel]++
	}

	mean, std := stat.PopMeanStdDev(scores, nil)
	max := scores[0]
	for _, s := range scores {
		if s > max {
			max = s
		}
	}

	return PopulationRiskSummary{
		TotalEntities:     len(scores),
		MeanRisk:          domain.Round4(mean),
		MaxRisk:           domain.Round4(max),
		StdRisk:           domain.Round4(std),
		LevelDistribution: levels,
	}
}

// String renders a CalculateInput for logging/debugging.
func (in CalculateInput) String() string {
	return fmt.Sprintf("CalculateInput{entity=%s behavior=%.2f device=%.2f network=%.2f auth=%.2f}",
		in.EntityID, in.BehaviorScore, in.DeviceHealth, in.NetworkTrust, in.AuthStrength)
}

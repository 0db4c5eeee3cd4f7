package behavioral

import (
	"math"

	"github.com/ztsentinel/sentinel/internal/domain"
)

// MinObservationsForBaseline is the observation count below which a
// profile is considered too thin to score against; Analyze returns the
// neutral 0.5 score in that case rather than a spuriously confident one.
const MinObservationsForBaseline = 10

// MinSessionsForDurationCheck is the session count below which duration
// anomaly scoring is skipped (insufficient data to estimate variance).
const MinSessionsForDurationCheck = 5

// DetectorWeights controls how the five component scores are combined
// into the composite anomaly score. Missing components (the event didn't
// supply that field) are simply excluded from the weighted average.
type DetectorWeights struct {
	Time     float64
	Resource float64
	Location float64
	IP       float64
	Duration float64
}

// DefaultDetectorWeights mirrors the weighting used across the system's
// other composite scores.
func DefaultDetectorWeights() DetectorWeights {
	return DetectorWeights{
		Time:     0.20,
		Resource: 0.25,
		Location: 0.25,
		IP:       0.15,
		Duration: 0.15,
	}
}

func (w DetectorWeights) asMap() map[string]float64 {
	return map[string]float64{
		"time":     w.Time,
		"resource": w.Resource,
		"location": w.Location,
		"ip":       w.IP,
		"duration": w.Duration,
	}
}

// AnomalyResult is the outcome of analyzing a single event against an
// entity's baseline.
type AnomalyResult struct {
	EntityID        string                    `json:"entity_id"`
	AnomalyScore    float64                   `json:"anomaly_score"`
	IsAnomalous     bool                      `json:"is_anomalous"`
	Details         map[string]map[string]any `json:"details"`
	ComponentScores map[string]float64        `json:"component_scores"`
}

// AnomalyDetector scores events against BaselineStore profiles using a
// weighted combination of per-signal anomaly checks.
type AnomalyDetector struct {
	baseline  *BaselineStore
	threshold float64
	weights   DetectorWeights
}

// NewAnomalyDetector builds a detector over the given baseline store.
// threshold is the composite score at/above which IsAnomalous is true.
func NewAnomalyDetector(baseline *BaselineStore, threshold float64, weights DetectorWeights) *AnomalyDetector {
	return &AnomalyDetector{baseline: baseline, threshold: threshold, weights: weights}
}

// Analyze scores a single event against entityID's learned baseline.
func (d *AnomalyDetector) Analyze(entityID string, event Event) AnomalyResult {
	profile := d.baseline.GetProfile(entityID)
	if profile == nil || profile.ObservationCount < MinObservationsForBaseline {
		return AnomalyResult{
			EntityID:     entityID,
			AnomalyScore: 0.5,
			IsAnomalous:  false,
			Details:      map[string]map[string]any{"_": {"reason": "insufficient_baseline"}},
		}
	}

	scores := make(map[string]float64)
	details := make(map[string]map[string]any)

	if event.Hour >= 0 {
		score, detail := timeAnomaly(profile, event.Hour)
		scores["time"] = score
		details["time"] = detail
	}
	if event.Resource != "" {
		score, detail := resourceAnomaly(profile, event.Resource)
		scores["resource"] = score
		details["resource"] = detail
	}
	if event.Location != "" {
		score, detail := locationAnomaly(profile, event.Location)
		scores["location"] = score
		details["location"] = detail
	}
	if event.SourceIP != "" {
		score, detail := ipAnomaly(profile, event.SourceIP)
		scores["ip"] = score
		details["ip"] = detail
	}
	if event.SessionDuration != nil {
		if score, detail, ok := durationAnomaly(profile, *event.SessionDuration); ok {
			scores["duration"] = score
			details["duration"] = detail
		} else {
			details["duration"] = detail
		}
	}

	weights := d.weights.asMap()
	var weightedSum, weightSum float64
	for key, score := range scores {
		w, ok := weights[key]
		if !ok {
			w = 0.1
		}
		weightedSum += score * w
		weightSum += w
	}
	composite := 0.0
	if weightSum > 0 {
		composite = weightedSum / weightSum
	}
	composite = domain.Round4(composite)

	return AnomalyResult{
		EntityID:        entityID,
		AnomalyScore:    composite,
		IsAnomalous:     composite >= d.threshold,
		Details:         details,
		ComponentScores: scores,
	}
}

// AnalyzeBatch scores a sequence of events against entityID's baseline,
// without mutating it.
func (d *AnomalyDetector) AnalyzeBatch(entityID string, events []Event) []AnomalyResult {
	out := make([]AnomalyResult, 0, len(events))
	for _, e := range events {
		out = append(out, d.Analyze(entityID, e))
	}
	return out
}

func timeAnomaly(p *domain.BaselineProfile, hour int) (float64, map[string]any) {
	probs := p.HourProbabilities()
	prob := probs[hour]
	maxProb := probs[argmax(probs[:])]

	if maxProb == 0 {
		return 0.0, map[string]any{"hour": hour, "probability": 0.0}
	}

	relative := 1.0 - (prob / maxProb)
	if p.HourDistribution[hour] == 0 {
		relative = math.Min(relative+0.3, 1.0)
	}

	return domain.Round4(relative), map[string]any{
		"hour":        hour,
		"probability": domain.Round4(prob),
		"peak_hour":   argmax(probs[:]),
	}
}

func sumCounts(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

func maxCount(m map[string]int) int {
	best := 0
	for _, v := range m {
		if v > best {
			best = v
		}
	}
	return best
}

func resourceAnomaly(p *domain.BaselineProfile, resource string) (float64, map[string]any) {
	count := p.ResourceCounts[resource]
	total := sumCounts(p.ResourceCounts)

	if total == 0 {
		return 0.5, map[string]any{"resource": resource, "seen_count": 0}
	}
	if count == 0 {
		nUnique := len(p.ResourceCounts)
		novelty := math.Max(0.6, 1.0-(float64(nUnique)/100.0))
		return domain.Round4(novelty), map[string]any{
			"resource": resource, "seen_count": 0, "novel": true,
		}
	}

	freq := float64(count) / float64(total)
	maxFreq := float64(maxCount(p.ResourceCounts)) / float64(total)
	score := 0.0
	if maxFreq > 0 {
		score = 1.0 - (freq / maxFreq)
	}
	return domain.Round4(score * 0.5), map[string]any{
		"resource": resource, "seen_count": count, "frequency": domain.Round4(freq),
	}
}

func locationAnomaly(p *domain.BaselineProfile, location string) (float64, map[string]any) {
	count := p.LocationCounts[location]
	if count == 0 {
		return 0.9, map[string]any{"location": location, "novel": true, "seen_count": 0}
	}
	total := sumCounts(p.LocationCounts)
	freq := 0.0
	if total > 0 {
		freq = float64(count) / float64(total)
	}
	score := domain.Max0(1.0 - (freq * 5))
	return domain.Round4(score), map[string]any{
		"location": location, "seen_count": count, "frequency": domain.Round4(freq),
	}
}

func ipAnomaly(p *domain.BaselineProfile, ip string) (float64, map[string]any) {
	count := p.SourceIPCounts[ip]
	if count == 0 {
		return 0.8, map[string]any{"source_ip": ip, "novel": true, "seen_count": 0}
	}
	total := sumCounts(p.SourceIPCounts)
	freq := 0.0
	if total > 0 {
		freq = float64(count) / float64(total)
	}
	score := domain.Max0(1.0 - (freq * 3))
	return domain.Round4(score), map[string]any{
		"source_ip": ip, "seen_count": count, "frequency": domain.Round4(freq),
	}
}

// durationAnomaly reports ok=false when too few sessions exist to
// estimate variance; the component is then excluded from the composite
// rather than contributing a deceptively normal zero.
func durationAnomaly(p *domain.BaselineProfile, duration float64) (float64, map[string]any, bool) {
	if p.SessionDuration.Count < MinSessionsForDurationCheck {
		return 0, map[string]any{"duration": duration, "insufficient_data": true}, false
	}

	std := math.Max(p.SessionDuration.StdDev(), 1.0)
	z := math.Abs(duration-p.SessionDuration.Mean) / std
	score := 1.0 / (1.0 + math.Exp(-1.5*(z-2.0)))

	return domain.Round4(score), map[string]any{
		"duration":      duration,
		"z_score":       domain.Round4(z),
		"baseline_mean": domain.Round4(p.SessionDuration.Mean),
		"baseline_std":  domain.Round4(std),
	}, true
}

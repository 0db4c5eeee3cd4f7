package domain

import (
	"math"
	"time"
)

// EntityKind identifies the category of entity a BaselineProfile describes.
type EntityKind string

const (
	EntityUser    EntityKind = "user"
	EntityService EntityKind = "service"
	EntitySystem  EntityKind = "system"
)

// WelfordStats holds Welford's online running mean / sum-of-squared
// deviations / count, permitting numerically stable incremental variance.
type WelfordStats struct {
	Mean  float64
	M2    float64
	Count int
}

// Update folds a new observation into the running statistics.
func (w *WelfordStats) Update(x float64) {
	w.Count++
	delta := x - w.Mean
	w.Mean += delta / float64(w.Count)
	delta2 := x - w.Mean
	w.M2 += delta * delta2
}

// Variance returns the sample variance, 0 if fewer than 2 observations.
func (w WelfordStats) Variance() float64 {
	if w.Count < 2 {
		return 0
	}
	return w.M2 / float64(w.Count-1)
}

// StdDev returns the sample standard deviation.
func (w WelfordStats) StdDev() float64 {
	return math.Sqrt(w.Variance())
}

// BaselineProfile is the learned statistical profile for a single entity.
// Created on first observation, mutated only by the baseline observer.
type BaselineProfile struct {
	EntityID         string
	EntityKind       EntityKind
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ObservationCount int

	HourDistribution [24]float64
	DOWDistribution  [7]float64

	ResourceCounts map[string]int
	ActionCounts   map[string]int
	LocationCounts map[string]int
	SourceIPCounts map[string]int

	FeatureStats    map[string]*WelfordStats
	SessionDuration WelfordStats
}

// NewBaselineProfile creates an empty profile for entityID.
func NewBaselineProfile(entityID string, kind EntityKind) *BaselineProfile {
	now := time.Now()
	return &BaselineProfile{
		EntityID:       entityID,
		EntityKind:     kind,
		CreatedAt:      now,
		UpdatedAt:      now,
		ResourceCounts: make(map[string]int),
		ActionCounts:   make(map[string]int),
		LocationCounts: make(map[string]int),
		SourceIPCounts: make(map[string]int),
		FeatureStats:   make(map[string]*WelfordStats),
	}
}

// HourProbabilities normalizes the hour distribution to sum to 1, or
// returns a uniform distribution if no hour-tagged observations exist.
func (p *BaselineProfile) HourProbabilities() [24]float64 {
	var total float64
	for _, v := range p.HourDistribution {
		total += v
	}
	var out [24]float64
	if total == 0 {
		for i := range out {
			out[i] = 1.0 / 24.0
		}
		return out
	}
	for i, v := range p.HourDistribution {
		out[i] = v / total
	}
	return out
}

// DOWProbabilities normalizes the day-of-week distribution to sum to 1,
// or returns a uniform distribution if no dow-tagged observations exist.
func (p *BaselineProfile) DOWProbabilities() [7]float64 {
	var total float64
	for _, v := range p.DOWDistribution {
		total += v
	}
	var out [7]float64
	if total == 0 {
		for i := range out {
			out[i] = 1.0 / 7.0
		}
		return out
	}
	for i, v := range p.DOWDistribution {
		out[i] = v / total
	}
	return out
}

// ResourceCount pairs a resource name with its observation count.
type ResourceCount struct {
	Resource string
	Count    int
}

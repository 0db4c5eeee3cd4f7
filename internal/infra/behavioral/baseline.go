// Package behavioral learns per-entity behavioral baselines and scores
// incoming events against them for anomalies, time/geo pattern breaks,
// and session-level drift.
package behavioral

import (
	"sort"
	"sync"
	"time"

	"github.com/ztsentinel/sentinel/internal/domain"
)

// DefaultDecayFactor is applied to the hour/day-of-week distributions by
// DecayProfiles, so old activity gradually loses influence over "normal".
const DefaultDecayFactor = 0.995

// Event is a single observed access event fed into the baseline learner.
// The entity ID is passed separately to Observe. All fields are
// optional; zero values are treated as
// "not supplied" (Hour/DayOfWeek use -1 as the sentinel for unset).
type Event struct {
	EntityKind      domain.EntityKind
	Hour            int
	DayOfWeek       int
	Resource        string
	Action          string
	SessionDuration *float64
	Location        string
	SourceIP        string
	Features        map[string]float64
}

// ProfileSummary is a compact, JSON-friendly snapshot of a BaselineProfile.
type ProfileSummary struct {
	EntityID           string                  `json:"entity_id"`
	EntityKind         domain.EntityKind       `json:"entity_kind"`
	ObservationCount   int                     `json:"observation_count"`
	PeakHour           int                     `json:"peak_hour"`
	PeakDay            int                     `json:"peak_day"`
	TopResources       []domain.ResourceCount  `json:"top_resources"`
	UniqueLocations    int                     `json:"unique_locations"`
	UniqueIPs          int                     `json:"unique_ips"`
	AvgSessionDuration float64                 `json:"avg_session_duration"`
	SessionDurationStd float64                 `json:"session_duration_std"`
}

// BaselineStore learns and maintains behavioral baselines for entities.
// Updates are streamed (Welford's algorithm) so no raw event history is
// retained. Thread-safe via RWMutex.
type BaselineStore struct {
	mu          sync.RWMutex
	profiles    map[string]*domain.BaselineProfile
	decayFactor float64
	now         func() time.Time
}

// NewBaselineStore creates a store with the given distribution decay
// factor (applied by DecayProfiles). Pass 0 to use DefaultDecayFactor.
func NewBaselineStore(decayFactor float64) *BaselineStore {
	if decayFactor <= 0 {
		decayFactor = DefaultDecayFactor
	}
	return &BaselineStore{
		profiles:    make(map[string]*domain.BaselineProfile),
		decayFactor: decayFactor,
		now:         time.Now,
	}
}

// getOrCreate returns or initializes entityID's profile. Caller must hold mu.
func (s *BaselineStore) getOrCreate(entityID string, kind domain.EntityKind) *domain.BaselineProfile {
	if p, ok := s.profiles[entityID]; ok {
		return p
	}
	if kind == "" {
		kind = domain.EntityUser
	}
	p := domain.NewBaselineProfile(entityID, kind)
	s.profiles[entityID] = p
	return p
}

// Observe folds a single event into entityID's baseline profile, creating
// the profile on first observation.
func (s *BaselineStore) Observe(entityID string, event Event) *domain.BaselineProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observeLocked(entityID, event)
}

func (s *BaselineStore) observeLocked(entityID string, event Event) *domain.BaselineProfile {
	profile := s.getOrCreate(entityID, event.EntityKind)
	profile.ObservationCount++
	profile.UpdatedAt = s.now()

	if event.Hour >= 0 && event.Hour < 24 {
		profile.HourDistribution[event.Hour]++
	}
	if event.DayOfWeek >= 0 && event.DayOfWeek < 7 {
		profile.DOWDistribution[event.DayOfWeek]++
	}
	if event.Resource != "" {
		profile.ResourceCounts[event.Resource]++
	}
	if event.Action != "" {
		profile.ActionCounts[event.Action]++
	}
	if event.SessionDuration != nil {
		profile.SessionDuration.Update(*event.SessionDuration)
	}
	if event.Location != "" {
		profile.LocationCounts[event.Location]++
	}
	if event.SourceIP != "" {
		profile.SourceIPCounts[event.SourceIP]++
	}
	for name, val := range event.Features {
		stat, ok := profile.FeatureStats[name]
		if !ok {
			stat = &domain.WelfordStats{}
			profile.FeatureStats[name] = stat
		}
		stat.Update(val)
	}

	return profile
}

// ObserveBatch folds a sequence of events into entityID's profile in order,
// returning the profile after the final event (nil if events is empty).
func (s *BaselineStore) ObserveBatch(entityID string, events []Event) *domain.BaselineProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	var profile *domain.BaselineProfile
	for _, e := range events {
		profile = s.observeLocked(entityID, e)
	}
	return profile
}

// DecayProfiles multiplies every profile's hour/day-of-week distributions
// by the store's decay factor, so long-stale activity patterns fade.
func (s *BaselineStore) DecayProfiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		for i := range p.HourDistribution {
			p.HourDistribution[i] *= s.decayFactor
		}
		for i := range p.DOWDistribution {
			p.DOWDistribution[i] *= s.decayFactor
		}
	}
}

// GetProfile returns entityID's profile, or nil if none exists.
func (s *BaselineStore) GetProfile(entityID string) *domain.BaselineProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[entityID]
}

// topResources returns the n most-observed resources, ties broken by name.
func topResources(counts map[string]int, n int) []domain.ResourceCount {
	out := make([]domain.ResourceCount, 0, len(counts))
	for res, c := range counts {
		out = append(out, domain.ResourceCount{Resource: res, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Resource < out[j].Resource
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}

// ProfileSummary builds a compact snapshot of entityID's profile, or
// returns ok=false if no profile exists yet.
func (s *BaselineStore) ProfileSummary(entityID string) (ProfileSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[entityID]
	if !ok {
		return ProfileSummary{}, false
	}
	return ProfileSummary{
		EntityID:           p.EntityID,
		EntityKind:         p.EntityKind,
		ObservationCount:   p.ObservationCount,
		PeakHour:           argmax(p.HourDistribution[:]),
		PeakDay:            argmax(p.DOWDistribution[:]),
		TopResources:       topResources(p.ResourceCounts, 5),
		UniqueLocations:    len(p.LocationCounts),
		UniqueIPs:          len(p.SourceIPCounts),
		AvgSessionDuration: domain.Round4(p.SessionDuration.Mean),
		SessionDurationStd: domain.Round4(p.SessionDuration.StdDev()),
	}, true
}

// TopResources returns the n most-observed resources for entityID,
// ties broken by name, or nil if no profile exists.
func (s *BaselineStore) TopResources(entityID string, n int) []domain.ResourceCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[entityID]
	if !ok {
		return nil
	}
	return topResources(p.ResourceCounts, n)
}

// AllEntityIDs returns every entity ID with a profile, sorted for
// deterministic output.
func (s *BaselineStore) AllEntityIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package behavioral

import (
	"math"
	"testing"

	"github.com/ztsentinel/sentinel/internal/domain"
)

// ─── Observe ────────────────────────────────────────────────────────────────

func TestBaselineStore_Observe_CreatesProfile(t *testing.T) {
	s := NewBaselineStore(0)
	dur := 120.0
	s.Observe("alice", Event{
		EntityKind:      domain.EntityUser,
		Hour:            9,
		DayOfWeek:       1,
		Resource:        "billing-api",
		Action:          "read",
		SessionDuration: &dur,
		Location:        "US",
		SourceIP:        "10.0.0.1",
	})

	p := s.GetProfile("alice")
	if p == nil {
		t.Fatal("GetProfile() = nil, want profile")
	}
	if p.ObservationCount != 1 {
		t.Errorf("ObservationCount = %d, want 1", p.ObservationCount)
	}
	if p.HourDistribution[9] != 1 {
		t.Errorf("HourDistribution[9] = %v, want 1", p.HourDistribution[9])
	}
	if p.ResourceCounts["billing-api"] != 1 {
		t.Errorf("ResourceCounts[billing-api] = %d, want 1", p.ResourceCounts["billing-api"])
	}
	if p.SessionDuration.Count != 1 || p.SessionDuration.Mean != 120.0 {
		t.Errorf("SessionDuration = %+v, want mean 120", p.SessionDuration)
	}
}

func TestBaselineStore_ObserveBatch(t *testing.T) {
	s := NewBaselineStore(0)
	events := []Event{
		{Hour: 9, Resource: "a"},
		{Hour: 9, Resource: "a"},
		{Hour: 14, Resource: "b"},
	}
	p := s.ObserveBatch("bob", events)
	if p == nil || p.ObservationCount != 3 {
		t.Fatalf("ObserveBatch() profile = %+v", p)
	}
	if p.ResourceCounts["a"] != 2 {
		t.Errorf("ResourceCounts[a] = %d, want 2", p.ResourceCounts["a"])
	}
}

func TestBaselineStore_ObserveBatch_Empty(t *testing.T) {
	s := NewBaselineStore(0)
	if p := s.ObserveBatch("nobody", nil); p != nil {
		t.Errorf("ObserveBatch(nil) = %+v, want nil", p)
	}
}

func TestBaselineStore_DecayProfiles(t *testing.T) {
	s := NewBaselineStore(0.5)
	s.Observe("alice", Event{Hour: 9, DayOfWeek: 2})
	s.DecayProfiles()
	p := s.GetProfile("alice")
	if p.HourDistribution[9] != 0.5 {
		t.Errorf("HourDistribution[9] after decay = %v, want 0.5", p.HourDistribution[9])
	}
	if p.DOWDistribution[2] != 0.5 {
		t.Errorf("DOWDistribution[2] after decay = %v, want 0.5", p.DOWDistribution[2])
	}
}

func TestBaselineStore_ProfileSummary_NotFound(t *testing.T) {
	s := NewBaselineStore(0)
	if _, ok := s.ProfileSummary("ghost"); ok {
		t.Error("ProfileSummary() ok = true, want false for unknown entity")
	}
}

func TestBaselineStore_ProfileSummary(t *testing.T) {
	s := NewBaselineStore(0)
	for i := 0; i < 5; i++ {
		s.Observe("alice", Event{Hour: 9, Resource: "a"})
	}
	s.Observe("alice", Event{Hour: 3, Resource: "b"})

	summary, ok := s.ProfileSummary("alice")
	if !ok {
		t.Fatal("ProfileSummary() ok = false, want true")
	}
	if summary.PeakHour != 9 {
		t.Errorf("PeakHour = %d, want 9", summary.PeakHour)
	}
	if summary.ObservationCount != 6 {
		t.Errorf("ObservationCount = %d, want 6", summary.ObservationCount)
	}
	if len(summary.TopResources) != 2 || summary.TopResources[0].Resource != "a" {
		t.Errorf("TopResources = %+v, want [a b]", summary.TopResources)
	}
}

func TestBaselineStore_WelfordMatchesDirectComputation(t *testing.T) {
	durations := []float64{120, 340.5, 87, 910, 55.25, 480, 260, 1024}

	s := NewBaselineStore(0)
	for _, d := range durations {
		dur := d
		s.Observe("alice", Event{Hour: -1, DayOfWeek: -1, SessionDuration: &dur})
	}

	var sum float64
	for _, d := range durations {
		sum += d
	}
	mean := sum / float64(len(durations))
	var ss float64
	for _, d := range durations {
		ss += (d - mean) * (d - mean)
	}
	variance := ss / float64(len(durations)-1)

	p := s.GetProfile("alice")
	if math.Abs(p.SessionDuration.Mean-mean) > 1e-9 {
		t.Errorf("Welford mean = %v, want %v", p.SessionDuration.Mean, mean)
	}
	if math.Abs(p.SessionDuration.Variance()-variance) > 1e-9 {
		t.Errorf("Welford variance = %v, want %v", p.SessionDuration.Variance(), variance)
	}
}

func TestBaselineStore_HourProbabilitiesSumToOne(t *testing.T) {
	s := NewBaselineStore(0)
	for _, h := range []int{0, 9, 9, 14, 23} {
		s.Observe("alice", Event{Hour: h})
	}

	probs := s.GetProfile("alice").HourProbabilities()
	var total float64
	for _, p := range probs {
		total += p
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("sum(HourProbabilities) = %v, want 1.0", total)
	}
}

func TestBaselineStore_HourProbabilitiesUniformWhenEmpty(t *testing.T) {
	s := NewBaselineStore(0)
	s.Observe("alice", Event{Hour: -1, DayOfWeek: -1, Resource: "a"})

	probs := s.GetProfile("alice").HourProbabilities()
	for i, p := range probs {
		if math.Abs(p-1.0/24.0) > 1e-9 {
			t.Fatalf("probs[%d] = %v, want uniform 1/24", i, p)
		}
	}
}

func TestBaselineStore_AllEntityIDs_Sorted(t *testing.T) {
	s := NewBaselineStore(0)
	s.Observe("carol", Event{})
	s.Observe("alice", Event{})
	s.Observe("bob", Event{})

	got := s.AllEntityIDs()
	want := []string{"alice", "bob", "carol"}
	if len(got) != len(want) {
		t.Fatalf("AllEntityIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllEntityIDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

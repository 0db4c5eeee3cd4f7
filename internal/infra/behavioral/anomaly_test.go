package behavioral

import "testing"

func primeProfile(s *BaselineStore, entityID string, n int) {
	for i := 0; i < n; i++ {
		s.Observe(entityID, Event{
			Hour:     9,
			Resource: "billing-api",
			Location: "US",
			SourceIP: "10.0.0.1",
		})
	}
}

func TestAnomalyDetector_InsufficientBaseline(t *testing.T) {
	store := NewBaselineStore(0)
	primeProfile(store, "alice", 3) // below MinObservationsForBaseline
	det := NewAnomalyDetector(store, 0.7, DefaultDetectorWeights())

	result := det.Analyze("alice", Event{Hour: 9})
	if result.IsAnomalous {
		t.Error("IsAnomalous = true, want false for insufficient baseline")
	}
	if result.AnomalyScore != 0.5 {
		t.Errorf("AnomalyScore = %v, want 0.5", result.AnomalyScore)
	}
}

func TestAnomalyDetector_NormalEvent_LowScore(t *testing.T) {
	store := NewBaselineStore(0)
	primeProfile(store, "alice", 20)
	det := NewAnomalyDetector(store, 0.7, DefaultDetectorWeights())

	result := det.Analyze("alice", Event{
		Hour:     9,
		Resource: "billing-api",
		Location: "US",
		SourceIP: "10.0.0.1",
	})
	if result.IsAnomalous {
		t.Errorf("IsAnomalous = true for familiar event, score=%v", result.AnomalyScore)
	}
}

func TestAnomalyDetector_NovelLocation_HighScore(t *testing.T) {
	store := NewBaselineStore(0)
	primeProfile(store, "alice", 20)
	det := NewAnomalyDetector(store, 0.7, DefaultDetectorWeights())

	result := det.Analyze("alice", Event{Location: "KP"})
	score, ok := result.ComponentScores["location"]
	if !ok {
		t.Fatal("ComponentScores missing \"location\"")
	}
	if score != 0.9 {
		t.Errorf("location score = %v, want 0.9 for never-seen location", score)
	}
}

func TestAnomalyDetector_NoSignals_ZeroScore(t *testing.T) {
	store := NewBaselineStore(0)
	primeProfile(store, "alice", 20)
	det := NewAnomalyDetector(store, 0.7, DefaultDetectorWeights())

	result := det.Analyze("alice", Event{Hour: -1})
	if result.AnomalyScore != 0 {
		t.Errorf("AnomalyScore = %v, want 0 when no signals present", result.AnomalyScore)
	}
}

func TestDurationAnomaly_InsufficientSessions(t *testing.T) {
	store := NewBaselineStore(0)
	primeProfile(store, "alice", 20)
	p := store.GetProfile("alice")

	_, detail, ok := durationAnomaly(p, 300)
	if ok {
		t.Error("ok = true, want false with <5 sessions")
	}
	if detail["insufficient_data"] != true {
		t.Errorf("detail = %+v, want insufficient_data", detail)
	}
}

func TestDurationAnomaly_OutlierFlagged(t *testing.T) {
	store := NewBaselineStore(0)
	primeProfile(store, "alice", 20)
	for _, d := range []float64{100, 110, 105, 95, 102} {
		dur := d
		store.Observe("alice", Event{SessionDuration: &dur})
	}
	p := store.GetProfile("alice")

	score, _, ok := durationAnomaly(p, 5000)
	if !ok {
		t.Fatal("ok = false, want true with 5 recorded sessions")
	}
	if score < 0.9 {
		t.Errorf("score = %v, want near 1.0 for extreme duration outlier", score)
	}
}

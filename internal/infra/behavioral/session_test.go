package behavioral

import (
	"testing"
	"time"
)

func TestSessionAnalyzer_StartSession_Basic(t *testing.T) {
	a := NewSessionAnalyzer(3, 0, 0)
	result := a.StartSession("s1", "alice", "10.0.0.1", "US", "curl/8.0")

	if result.ConcurrentCount != 1 {
		t.Errorf("ConcurrentCount = %d, want 1", result.ConcurrentCount)
	}
	if len(result.Risks) != 0 {
		t.Errorf("Risks = %v, want none for first session", result.Risks)
	}
}

func TestSessionAnalyzer_StartSession_ExcessiveConcurrency(t *testing.T) {
	a := NewSessionAnalyzer(2, 0, 0)
	a.StartSession("s1", "alice", "10.0.0.1", "US", "")
	a.StartSession("s2", "alice", "10.0.0.1", "US", "")
	result := a.StartSession("s3", "alice", "10.0.0.1", "US", "")

	found := false
	for _, r := range result.Risks {
		if r == "excessive_concurrent_sessions" {
			found = true
		}
	}
	if !found {
		t.Errorf("Risks = %v, want excessive_concurrent_sessions", result.Risks)
	}
}

func TestSessionAnalyzer_StartSession_MultipleIPs(t *testing.T) {
	a := NewSessionAnalyzer(5, 0, 0)
	a.StartSession("s1", "alice", "10.0.0.1", "US", "")
	result := a.StartSession("s2", "alice", "10.0.0.2", "US", "")

	found := false
	for _, r := range result.Risks {
		if r == "multiple_source_ips" {
			found = true
		}
	}
	if !found {
		t.Errorf("Risks = %v, want multiple_source_ips", result.Risks)
	}
}

func TestSessionAnalyzer_UpdateSession_NotFound(t *testing.T) {
	a := NewSessionAnalyzer(3, 0, 0)
	result := a.UpdateSession("ghost", "read", "")
	if !result.NotFound {
		t.Error("NotFound = false, want true for unknown session")
	}
}

func TestSessionAnalyzer_UpdateSession_IPChange(t *testing.T) {
	a := NewSessionAnalyzer(3, 0, 0)
	a.StartSession("s1", "alice", "10.0.0.1", "US", "")
	result := a.UpdateSession("s1", "read", "10.0.0.99")

	found := false
	for _, r := range result.Risks {
		if r == "ip_changed_mid_session" {
			found = true
		}
	}
	if !found {
		t.Errorf("Risks = %v, want ip_changed_mid_session", result.Risks)
	}
	if result.ActionCount != 1 {
		t.Errorf("ActionCount = %d, want 1", result.ActionCount)
	}
}

func TestSessionAnalyzer_EndSession(t *testing.T) {
	a := NewSessionAnalyzer(3, 0, 0)
	a.StartSession("s1", "alice", "10.0.0.1", "US", "")
	a.UpdateSession("s1", "read", "")
	result := a.EndSession("s1")

	if result.NotFound {
		t.Fatal("NotFound = true, want false")
	}
	if result.ActionCount != 1 {
		t.Errorf("ActionCount = %d, want 1", result.ActionCount)
	}

	active := a.GetActiveSessions("alice")
	if len(active) != 0 {
		t.Errorf("GetActiveSessions() = %v, want none after EndSession", active)
	}
}

func TestSessionAnalyzer_CleanupExpired(t *testing.T) {
	a := NewSessionAnalyzer(3, 0, 0)
	clock := time.Now()
	a.now = func() time.Time { return clock }
	a.StartSession("s1", "alice", "10.0.0.1", "US", "")

	clock = clock.Add(2 * time.Hour)
	removed := a.CleanupExpired(time.Hour)
	if removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
}

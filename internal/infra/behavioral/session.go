package behavioral

import (
	"sort"
	"sync"
	"time"

	"github.com/ztsentinel/sentinel/internal/domain"
)

// DefaultMaxConcurrentSessions is the default concurrent-session limit
// before SessionAnalyzer flags new sessions as excessive.
const DefaultMaxConcurrentSessions = 3

// DefaultIdleTimeout is the default gap in session activity that counts
// as a "long idle resume" risk flag.
const DefaultIdleTimeout = time.Hour

// DefaultImpossibleTravelKmPerHour is the speed above which two
// consecutive session locations are physically implausible. Carried for
// callers that want to layer impossible-travel checks on top of the
// location history SessionAnalyzer tracks; not applied internally.
const DefaultImpossibleTravelKmPerHour = 900.0

// Session is a single tracked entity session.
type Session struct {
	SessionID    string
	EntityID     string
	StartTime    time.Time
	LastActivity time.Time
	SourceIP     string
	Location     string
	UserAgent    string
	Actions      []string
	RiskFlags    []string
	IsActive     bool
}

// Duration returns the session's elapsed time: from start to last
// activity if still active, otherwise frozen at the recorded end.
func (s *Session) Duration() time.Duration {
	if s.LastActivity.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.LastActivity.Sub(s.StartTime)
}

// StartResult is returned by StartSession.
type StartResult struct {
	SessionID       string
	EntityID        string
	ConcurrentCount int
	Risks           []string
	RiskScore       float64
}

// UpdateResult is returned by UpdateSession.
type UpdateResult struct {
	SessionID   string
	NotFound    bool
	IdleSeconds float64
	ActionCount int
	Risks       []string
}

// EndResult is returned by EndSession.
type EndResult struct {
	SessionID   string
	NotFound    bool
	Duration    float64
	ActionCount int
	RiskFlags   []string
}

// ActiveSessionView is a read-only snapshot of an active session.
type ActiveSessionView struct {
	SessionID   string
	Duration    float64
	SourceIP    string
	Location    string
	ActionCount int
	RiskFlags   []string
}

// SessionAnalyzer tracks active sessions per entity and flags suspicious
// patterns: excessive concurrency, shifting source IPs, and resumption
// after a long idle gap. Thread-safe via RWMutex.
type SessionAnalyzer struct {
	mu             sync.RWMutex
	maxConcurrent  int
	travelSpeedKmh float64
	idleTimeout    time.Duration
	sessions       map[string]*Session
	entitySessions map[string][]string
	now            func() time.Time
}

// NewSessionAnalyzer builds an analyzer with the given limits. Zero
// values fall back to the package defaults.
func NewSessionAnalyzer(maxConcurrent int, idleTimeout time.Duration, travelSpeedKmh float64) *SessionAnalyzer {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSessions
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if travelSpeedKmh <= 0 {
		travelSpeedKmh = DefaultImpossibleTravelKmPerHour
	}
	return &SessionAnalyzer{
		maxConcurrent:  maxConcurrent,
		travelSpeedKmh: travelSpeedKmh,
		idleTimeout:    idleTimeout,
		sessions:       make(map[string]*Session),
		entitySessions: make(map[string][]string),
		now:            time.Now,
	}
}

func (a *SessionAnalyzer) activeSessionIDsLocked(entityID string) []string {
	var active []string
	for _, sid := range a.entitySessions[entityID] {
		if s, ok := a.sessions[sid]; ok && s.IsActive {
			active = append(active, sid)
		}
	}
	return active
}

// StartSession begins tracking a new session, returning a risk
// assessment based on the entity's other currently-active sessions.
func (a *SessionAnalyzer) StartSession(sessionID, entityID, sourceIP, location, userAgent string) StartResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	session := &Session{
		SessionID:    sessionID,
		EntityID:     entityID,
		StartTime:    now,
		LastActivity: now,
		SourceIP:     sourceIP,
		Location:     location,
		UserAgent:    userAgent,
		IsActive:     true,
	}

	var risks []string
	active := a.activeSessionIDsLocked(entityID)

	if len(active) >= a.maxConcurrent {
		risks = append(risks, "excessive_concurrent_sessions")
		session.RiskFlags = append(session.RiskFlags, "concurrent_limit_exceeded")
	}

	activeIPs := make(map[string]struct{}, len(active))
	for _, sid := range active {
		if s, ok := a.sessions[sid]; ok && s.SourceIP != "" {
			activeIPs[s.SourceIP] = struct{}{}
		}
	}
	if sourceIP != "" && len(activeIPs) > 0 {
		if _, known := activeIPs[sourceIP]; !known {
			risks = append(risks, "multiple_source_ips")
			session.RiskFlags = append(session.RiskFlags, "ip_mismatch")
		}
	}

	a.sessions[sessionID] = session
	a.entitySessions[entityID] = append(a.entitySessions[entityID], sessionID)

	return StartResult{
		SessionID:       sessionID,
		EntityID:        entityID,
		ConcurrentCount: len(active) + 1,
		Risks:           risks,
		RiskScore:       domain.Clamp01(float64(len(risks)) * 0.4),
	}
}

// UpdateSession records activity on an existing session.
func (a *SessionAnalyzer) UpdateSession(sessionID, action, sourceIP string) UpdateResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, ok := a.sessions[sessionID]
	if !ok {
		return UpdateResult{SessionID: sessionID, NotFound: true}
	}

	now := a.now()
	var risks []string

	idle := now.Sub(session.LastActivity)
	if idle > a.idleTimeout {
		risks = append(risks, "resumed_after_long_idle")
		session.RiskFlags = append(session.RiskFlags, "long_idle_resume")
	}

	if sourceIP != "" && session.SourceIP != "" && sourceIP != session.SourceIP {
		risks = append(risks, "ip_changed_mid_session")
		session.RiskFlags = append(session.RiskFlags, "ip_change")
	}

	session.LastActivity = now
	if action != "" {
		session.Actions = append(session.Actions, action)
	}
	if sourceIP != "" {
		session.SourceIP = sourceIP
	}

	return UpdateResult{
		SessionID:   sessionID,
		IdleSeconds: domain.Round4(idle.Seconds()),
		ActionCount: len(session.Actions),
		Risks:       risks,
	}
}

// EndSession marks a session inactive and returns its final summary.
func (a *SessionAnalyzer) EndSession(sessionID string) EndResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, ok := a.sessions[sessionID]
	if !ok {
		return EndResult{SessionID: sessionID, NotFound: true}
	}

	session.IsActive = false
	session.LastActivity = a.now()

	return EndResult{
		SessionID:   sessionID,
		Duration:    domain.Round4(session.Duration().Seconds()),
		ActionCount: len(session.Actions),
		RiskFlags:   session.RiskFlags,
	}
}

// GetActiveSessions lists entityID's currently active sessions.
func (a *SessionAnalyzer) GetActiveSessions(entityID string) []ActiveSessionView {
	a.mu.RLock()
	defer a.mu.RUnlock()

	sids := a.entitySessions[entityID]
	out := make([]ActiveSessionView, 0, len(sids))
	for _, sid := range sids {
		s, ok := a.sessions[sid]
		if !ok || !s.IsActive {
			continue
		}
		out = append(out, ActiveSessionView{
			SessionID:   s.SessionID,
			Duration:    domain.Round4(s.Duration().Seconds()),
			SourceIP:    s.SourceIP,
			Location:    s.Location,
			ActionCount: len(s.Actions),
			RiskFlags:   s.RiskFlags,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// CleanupExpired removes sessions whose last activity is older than
// maxAge, returning the count removed.
func (a *SessionAnalyzer) CleanupExpired(maxAge time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	removed := 0
	for sid, s := range a.sessions {
		if now.Sub(s.LastActivity) > maxAge {
			s.IsActive = false
			delete(a.sessions, sid)
			removed++
		}
	}
	return removed
}

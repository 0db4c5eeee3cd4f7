package microseg

import "sort"

// Segment is a named microsegment with an explicit member set and
// allowed outbound communication rules.
type Segment struct {
	SegmentID   string
	Name        string
	Description string
	Members     map[string]bool
	// AllowedEgress maps a destination segment id to the set of ports
	// permitted toward it. An empty (non-nil) port set means "any port".
	AllowedEgress map[string]map[int]bool
}

// SegmentSummaryEntry reports one segment's membership and isolation.
type SegmentSummaryEntry struct {
	SegmentID      string
	Name           string
	MemberCount    int
	IsolationScore float64
}

// SegmentManager owns the segment catalog and answers communication
// policy questions against it. Not internally synchronized; callers
// serialize writers, consistent with FlowAnalyzer.
type SegmentManager struct {
	segments map[string]*Segment
	order    []string
}

// NewSegmentManager builds an empty segment manager.
func NewSegmentManager() *SegmentManager {
	return &SegmentManager{segments: make(map[string]*Segment)}
}

// CreateSegment registers a new segment, or replaces an existing one
// with the same id.
func (m *SegmentManager) CreateSegment(segmentID, name, description string) *Segment {
	if _, exists := m.segments[segmentID]; !exists {
		m.order = append(m.order, segmentID)
	}
	seg := &Segment{
		SegmentID:     segmentID,
		Name:          name,
		Description:   description,
		Members:       make(map[string]bool),
		AllowedEgress: make(map[string]map[int]bool),
	}
	m.segments[segmentID] = seg
	return seg
}

// GetSegment returns a segment by id.
func (m *SegmentManager) GetSegment(segmentID string) (*Segment, bool) {
	s, ok := m.segments[segmentID]
	return s, ok
}

// AddMember adds member to a segment, reporting whether the segment
// exists.
func (m *SegmentManager) AddMember(segmentID, member string) bool {
	seg, ok := m.segments[segmentID]
	if !ok {
		return false
	}
	seg.Members[member] = true
	return true
}

// RemoveMember removes member from a segment.
func (m *SegmentManager) RemoveMember(segmentID, member string) {
	if seg, ok := m.segments[segmentID]; ok {
		delete(seg.Members, member)
	}
}

// AllowCommunication permits srcSegment to reach dstSegment on the
// given ports. An empty ports list means any port is allowed.
func (m *SegmentManager) AllowCommunication(srcSegment, dstSegment string, ports ...int) {
	seg, ok := m.segments[srcSegment]
	if !ok {
		return
	}
	allowed := seg.AllowedEgress[dstSegment]
	if allowed == nil {
		allowed = make(map[int]bool)
		seg.AllowedEgress[dstSegment] = allowed
	}
	for _, p := range ports {
		allowed[p] = true
	}
}

// GetMemberSegment returns the segment id that member belongs to, in
// insertion order of segment creation (a member should belong to at
// most one segment; the first match wins if that invariant is
// violated).
func (m *SegmentManager) GetMemberSegment(member string) (string, bool) {
	for _, id := range m.order {
		if m.segments[id].Members[member] {
			return id, true
		}
	}
	return "", false
}

// GetMembershipMap returns every member -> segment id mapping.
func (m *SegmentManager) GetMembershipMap() map[string]string {
	out := make(map[string]string)
	for _, id := range m.order {
		for member := range m.segments[id].Members {
			out[member] = id
		}
	}
	return out
}

// IsAllowed reports whether src may reach dst on port, per the
// following rules, in order:
//  1. If src and dst share a segment, communication is always allowed.
//  2. If either endpoint has no known segment, communication is denied
//     (default deny for unclassified endpoints).
//  3. Otherwise the src segment must have an AllowedEgress entry for
//     dst's segment, and that entry's port set must be empty (any
//     port) or contain port.
func (m *SegmentManager) IsAllowed(src, dst string, port int) bool {
	srcSeg, srcOK := m.GetMemberSegment(src)
	dstSeg, dstOK := m.GetMemberSegment(dst)
	if !srcOK || !dstOK {
		return false
	}
	if srcSeg == dstSeg {
		return true
	}
	seg := m.segments[srcSeg]
	ports, ok := seg.AllowedEgress[dstSeg]
	if !ok {
		return false
	}
	if len(ports) == 0 {
		return true
	}
	return ports[port]
}

// SegmentSummary reports membership counts and isolation scores for
// every segment, sorted by segment id.
func (m *SegmentManager) SegmentSummary() []SegmentSummaryEntry {
	ids := make([]string, 0, len(m.segments))
	for id := range m.segments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]SegmentSummaryEntry, 0, len(ids))
	for _, id := range ids {
		seg := m.segments[id]
		out = append(out, SegmentSummaryEntry{
			SegmentID:      id,
			Name:           seg.Name,
			MemberCount:    len(seg.Members),
			IsolationScore: m.IsolationScore(id),
		})
	}
	return out
}

// IsolationScore measures how restricted a segment's outbound access
// is: 1.0 means it permits egress to no other segment, 0.0 means it
// has an egress rule toward every other known segment, whatever ports
// those rules allow.
func (m *SegmentManager) IsolationScore(segmentID string) float64 {
	seg, ok := m.segments[segmentID]
	if !ok {
		return 0
	}
	otherSegments := len(m.segments) - 1
	if otherSegments <= 0 {
		return 1
	}
	allowedTargets := len(seg.AllowedEgress)
	if allowedTargets > otherSegments {
		allowedTargets = otherSegments
	}
	return 1 - float64(allowedTargets)/float64(otherSegments)
}

// Segments returns every segment id in creation order.
func (m *SegmentManager) Segments() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

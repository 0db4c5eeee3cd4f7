// Package identity is the central registry for user, service, and
// device identities: registration lookup, alias correlation across
// systems, and session tracking. It's a simple keyed store consumed
// by the HTTP facade and CLI, not part of the risk/trust core.
package identity

import (
	"sort"
	"sync"
	"time"

	"github.com/ztsentinel/sentinel/internal/domain"
)

// SessionRecord tracks one identity session.
type SessionRecord struct {
	SessionID  string
	IdentityID string
	DeviceID   string
	SourceIP   string
	Started    time.Time
	Active     bool
}

// Summary aggregates the registry's current population for reporting.
type Summary struct {
	TotalIdentities   int                       `json:"total_identities"`
	EnabledIdentities int                       `json:"enabled_identities"`
	TotalDevices      int                       `json:"total_devices"`
	CompliantDevices  int                       `json:"compliant_devices"`
	ActiveSessions    int                       `json:"active_sessions"`
	IdentityTypes     map[domain.EntityKind]int `json:"identity_types"`
}

// Registry is the identity/device registry and session tracker.
// Thread-safe via RWMutex.
type Registry struct {
	mu           sync.RWMutex
	identities   map[string]*domain.Identity
	devices      map[string]*domain.Device
	correlations map[string]map[string]bool // alias -> identity ids
	sessions     map[string]*SessionRecord
}

// NewRegistry builds an empty identity registry.
func NewRegistry() *Registry {
	return &Registry{
		identities:   make(map[string]*domain.Identity),
		devices:      make(map[string]*domain.Device),
		correlations: make(map[string]map[string]bool),
		sessions:     make(map[string]*SessionRecord),
	}
}

// RegisterIdentity adds or replaces an identity.
func (r *Registry) RegisterIdentity(identity *domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities[identity.IdentityID] = identity
}

// GetIdentity returns an identity by id.
func (r *Registry) GetIdentity(identityID string) (*domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.identities[identityID]
	return i, ok
}

// FindByEmail returns the first identity with a matching email, if any.
func (r *Registry) FindByEmail(email string) (*domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range sortedIdentityIDs(r.identities) {
		i := r.identities[id]
		if i.Email == email {
			return i, true
		}
	}
	return nil, false
}

// FindByRole returns every identity holding the given role.
func (r *Registry) FindByRole(role string) []*domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Identity
	for _, id := range sortedIdentityIDs(r.identities) {
		i := r.identities[id]
		for _, role2 := range i.Roles {
			if role2 == role {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// FindByGroup returns every identity belonging to the given group.
func (r *Registry) FindByGroup(group string) []*domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Identity
	for _, id := range sortedIdentityIDs(r.identities) {
		i := r.identities[id]
		for _, g := range i.Groups {
			if g == group {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// DisableIdentity marks identityID disabled, reporting whether it existed.
func (r *Registry) DisableIdentity(identityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.identities[identityID]
	if !ok {
		return false
	}
	i.Enabled = false
	return true
}

// RegisterDevice adds or replaces a device.
func (r *Registry) RegisterDevice(device *domain.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[device.DeviceID] = device
}

// GetDevice returns a device by id.
func (r *Registry) GetDevice(deviceID string) (*domain.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[deviceID]
	return d, ok
}

// UserDevices returns every device owned by ownerID.
func (r *Registry) UserDevices(ownerID string) []*domain.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Device
	for _, id := range sortedDeviceIDs(r.devices) {
		d := r.devices[id]
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out
}

// NonCompliantDevices returns every registered non-compliant device.
func (r *Registry) NonCompliantDevices() []*domain.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Device
	for _, id := range sortedDeviceIDs(r.devices) {
		d := r.devices[id]
		if !d.Compliant {
			out = append(out, d)
		}
	}
	return out
}

// AddCorrelation links an alias (email, username, ...) to an identity.
func (r *Registry) AddCorrelation(alias, identityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.correlations[alias] == nil {
		r.correlations[alias] = make(map[string]bool)
	}
	r.correlations[alias][identityID] = true
}

// ResolveAlias returns every identity id linked to alias, sorted.
func (r *Registry) ResolveAlias(alias string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.correlations[alias]
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TrackSession begins tracking a new active session and bumps the
// owning identity's last-active timestamp if it's registered.
func (r *Registry) TrackSession(sessionID, identityID, deviceID, sourceIP string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &SessionRecord{
		SessionID:  sessionID,
		IdentityID: identityID,
		DeviceID:   deviceID,
		SourceIP:   sourceIP,
		Started:    time.Now(),
		Active:     true,
	}
	if i, ok := r.identities[identityID]; ok {
		i.LastActive = time.Now()
	}
}

// EndSession marks a session inactive.
func (r *Registry) EndSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.Active = false
	}
}

// ActiveSessions returns active sessions, optionally filtered to one
// identity (pass "" for every identity).
func (r *Registry) ActiveSessions(identityID string) []SessionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []SessionRecord
	for _, id := range ids {
		s := r.sessions[id]
		if !s.Active {
			continue
		}
		if identityID != "" && s.IdentityID != identityID {
			continue
		}
		out = append(out, *s)
	}
	return out
}

// Summary aggregates the registry's current population.
func (r *Registry) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Summary{
		TotalIdentities: len(r.identities),
		TotalDevices:    len(r.devices),
		IdentityTypes: map[domain.EntityKind]int{
			domain.EntityUser: 0, domain.EntityService: 0, domain.EntitySystem: 0,
		},
	}
	for _, i := range r.identities {
		if i.Enabled {
			s.EnabledIdentities++
		}
		s.IdentityTypes[i.IdentityType]++
	}
	for _, d := range r.devices {
		if d.Compliant {
			s.CompliantDevices++
		}
	}
	for _, sess := range r.sessions {
		if sess.Active {
			s.ActiveSessions++
		}
	}
	return s
}

func sortedIdentityIDs(m map[string]*domain.Identity) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortedDeviceIDs(m map[string]*domain.Device) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

package identity

import (
	"testing"

	"github.com/ztsentinel/sentinel/internal/domain"
)

func TestFindByEmail(t *testing.T) {
	r := NewRegistry()
	r.RegisterIdentity(&domain.Identity{IdentityID: "u1", Email: "a@example.com", Enabled: true})
	r.RegisterIdentity(&domain.Identity{IdentityID: "u2", Email: "b@example.com", Enabled: true})

	i, ok := r.FindByEmail("b@example.com")
	if !ok || i.IdentityID != "u2" {
		t.Fatalf("expected u2, got %+v, ok=%v", i, ok)
	}

	if _, ok := r.FindByEmail("missing@example.com"); ok {
		t.Fatal("expected no match for unknown email")
	}
}

func TestFindByRoleAndGroup(t *testing.T) {
	r := NewRegistry()
	r.RegisterIdentity(&domain.Identity{IdentityID: "u1", Roles: []string{"admin"}, Groups: []string{"eng"}})
	r.RegisterIdentity(&domain.Identity{IdentityID: "u2", Roles: []string{"viewer"}, Groups: []string{"eng"}})

	admins := r.FindByRole("admin")
	if len(admins) != 1 || admins[0].IdentityID != "u1" {
		t.Fatalf("expected [u1], got %+v", admins)
	}

	eng := r.FindByGroup("eng")
	if len(eng) != 2 {
		t.Fatalf("expected 2 members of eng, got %d", len(eng))
	}
}

func TestNonCompliantDevices(t *testing.T) {
	r := NewRegistry()
	r.RegisterDevice(&domain.Device{DeviceID: "d1", Compliant: true})
	r.RegisterDevice(&domain.Device{DeviceID: "d2", Compliant: false})

	nc := r.NonCompliantDevices()
	if len(nc) != 1 || nc[0].DeviceID != "d2" {
		t.Fatalf("expected [d2], got %+v", nc)
	}
}

func TestCorrelation(t *testing.T) {
	r := NewRegistry()
	r.AddCorrelation("alice@corp", "u1")
	r.AddCorrelation("alice@corp", "u2")

	ids := r.ResolveAlias("alice@corp")
	if len(ids) != 2 {
		t.Fatalf("expected 2 correlated identities, got %v", ids)
	}
	if len(r.ResolveAlias("unknown@corp")) != 0 {
		t.Fatal("expected no correlations for unknown alias")
	}
}

func TestSessionLifecycle(t *testing.T) {
	r := NewRegistry()
	r.RegisterIdentity(&domain.Identity{IdentityID: "u1", Enabled: true})
	r.TrackSession("s1", "u1", "d1", "10.0.0.1")

	active := r.ActiveSessions("u1")
	if len(active) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(active))
	}

	r.EndSession("s1")
	if len(r.ActiveSessions("u1")) != 0 {
		t.Fatal("expected no active sessions after EndSession")
	}
}

func TestSummary(t *testing.T) {
	r := NewRegistry()
	r.RegisterIdentity(&domain.Identity{IdentityID: "u1", Enabled: true, IdentityType: domain.EntityUser})
	r.RegisterIdentity(&domain.Identity{IdentityID: "u2", Enabled: false, IdentityType: domain.EntityService})
	r.RegisterDevice(&domain.Device{DeviceID: "d1", Compliant: true})
	r.TrackSession("s1", "u1", "", "")

	s := r.Summary()
	if s.TotalIdentities != 2 || s.EnabledIdentities != 1 {
		t.Fatalf("unexpected identity counts: %+v", s)
	}
	if s.TotalDevices != 1 || s.CompliantDevices != 1 {
		t.Fatalf("unexpected device counts: %+v", s)
	}
	if s.ActiveSessions != 1 {
		t.Fatalf("expected 1 active session, got %d", s.ActiveSessions)
	}
	if s.IdentityTypes[domain.EntityUser] != 1 || s.IdentityTypes[domain.EntityService] != 1 {
		t.Fatalf("unexpected identity type breakdown: %+v", s.IdentityTypes)
	}
}

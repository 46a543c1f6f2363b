package rbac

import "testing"

func TestPolicyGrants(t *testing.T) {
	p, err := NewPolicy([]string{"Vendedor", "Manager", "CPC"})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	for _, role := range []string{"Vendedor", "Manager", "CPC"} {
		for _, perm := range []string{PermRegisterKitchen, PermCreateIncident, PermUpdateIncident} {
			if !p.Allowed(role, perm) {
				t.Fatalf("expected %s to hold %s", role, perm)
			}
		}
	}
	if !p.Allowed("Manager", PermViewAudit) {
		t.Fatalf("Manager must see the audit trail")
	}
	if p.Allowed("Vendedor", PermViewAudit) || p.Allowed("CPC", PermViewAudit) {
		t.Fatalf("audit trail is Manager-only")
	}
	if p.Allowed("Becario", PermCreateIncident) {
		t.Fatalf("unknown roles hold nothing")
	}
}

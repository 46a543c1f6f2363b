package directory

import (
	"testing"

	"cocina-ops/config"
)

func testDirectory() *Directory {
	return New([]config.DirectoryEntry{
		{LDAP: "30000001", Name: "Lara", Role: RoleSeller},
		{LDAP: "30000002", Name: "Maybeth", Role: RoleSeller},
		{LDAP: "30104750", Name: "Javi", Role: RoleManager},
		{LDAP: "30104750", Name: "Duplicado", Role: RoleCPC},
	})
}

func TestResolve(t *testing.T) {
	d := testDirectory()
	a, ok := d.Resolve("30000001")
	if !ok || a.Name != "Lara" || a.Role != RoleSeller {
		t.Fatalf("unexpected actor %+v (ok=%v)", a, ok)
	}
	// Leading/trailing whitespace comes in from form fields.
	if _, ok := d.Resolve("  30000002 "); !ok {
		t.Fatalf("trimmed lookup must resolve")
	}
	if _, ok := d.Resolve("99999999"); ok {
		t.Fatalf("unknown ldap must not resolve")
	}
	// First entry wins on duplicate ldap.
	a, _ = d.Resolve("30104750")
	if a.Name != "Javi" {
		t.Fatalf("expected first duplicate to win, got %+v", a)
	}
}

func TestSearch(t *testing.T) {
	d := testDirectory()
	if got := d.Search("l"); got != nil {
		t.Fatalf("single-character queries return nothing, got %+v", got)
	}
	got := d.Search("LAR")
	if len(got) != 1 || got[0].Name != "Lara" {
		t.Fatalf("case-insensitive name match, got %+v", got)
	}
	got = d.Search("300000")
	if len(got) != 2 {
		t.Fatalf("ldap substring match, got %+v", got)
	}
}

func TestAllCopies(t *testing.T) {
	d := testDirectory()
	all := d.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 distinct actors, got %d", len(all))
	}
	all[0].Name = "mutado"
	if a, _ := d.Resolve(all[0].LDAP); a.Name == "mutado" {
		t.Fatalf("All must return a copy")
	}
}

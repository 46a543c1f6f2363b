package directory

import (
	"strings"

	"cocina-ops/config"
)

const (
	RoleSeller  = "Vendedor"
	RoleManager = "Manager"
	RoleCPC     = "CPC"
)

// Actor is one resolved identity from the directory.
type Actor struct {
	LDAP string `json:"ldap"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Directory is the static ldap -> {name, role} lookup. Entries come from
// config at startup and are never re-resolved afterwards: a note keeps the
// author name it was written with even if the directory changes later.
type Directory struct {
	byLDAP map[string]Actor
	order  []Actor
}

func New(entries []config.DirectoryEntry) *Directory {
	d := &Directory{byLDAP: make(map[string]Actor, len(entries))}
	for _, e := range entries {
		a := Actor{LDAP: e.LDAP, Name: e.Name, Role: e.Role}
		if _, dup := d.byLDAP[a.LDAP]; dup {
			continue
		}
		d.byLDAP[a.LDAP] = a
		d.order = append(d.order, a)
	}
	return d
}

func (d *Directory) Resolve(ldap string) (Actor, bool) {
	a, ok := d.byLDAP[strings.TrimSpace(ldap)]
	return a, ok
}

// Search matches actors by name or ldap substring, case-insensitive. Queries
// shorter than two characters return nothing, matching the registration form
// behavior.
func (d *Directory) Search(query string) []Actor {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < 2 {
		return nil
	}
	var out []Actor
	for _, a := range d.order {
		if strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(a.LDAP, q) {
			out = append(out, a)
		}
	}
	return out
}

func (d *Directory) All() []Actor {
	out := make([]Actor, len(d.order))
	copy(out, d.order)
	return out
}

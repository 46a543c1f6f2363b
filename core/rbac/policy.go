package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const (
	PermRegisterKitchen = "kitchens.register"
	PermCreateIncident  = "incidents.create"
	PermUpdateIncident  = "incidents.update"
	PermViewAudit       = "audit.view"
)

const modelText = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// Policy answers "may this directory role perform this action". Every known
// role may register kitchens and create/update incidents; the audit trail is
// Manager-only.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy(roles []string) (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	for _, role := range roles {
		for _, perm := range []string{PermRegisterKitchen, PermCreateIncident, PermUpdateIncident} {
			if _, err := e.AddPolicy(role, perm); err != nil {
				return nil, err
			}
		}
		if role == "Manager" {
			if _, err := e.AddPolicy(role, PermViewAudit); err != nil {
				return nil, err
			}
		}
	}
	return &Policy{enforcer: e}, nil
}

func (p *Policy) Allowed(role, perm string) bool {
	ok, err := p.enforcer.Enforce(role, perm)
	return err == nil && ok
}

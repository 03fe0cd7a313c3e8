package auth

import "github.com/trezcool/shule/core/user"

type (
	// rule is a single permission-decision step. Rules are evaluated in
	// order; the first one that allows wins.
	rule struct {
		name   string
		allows func(p Principal, perm string) bool
	}

	// Guard makes pure, repeatable authorization decisions.
	// Callers must apply RequireRole before RequirePermission when both
	// gate the same operation: permission checks presuppose a resolved,
	// authenticated principal.
	Guard struct {
		rules []rule
	}
)

// NewGuard builds the default rule list: the admin override first, then
// the role's capability set. The override is deliberately a standalone
// rule rather than an embedded conditional so it stays auditable.
func NewGuard() *Guard {
	return &Guard{
		rules: []rule{
			{
				name: "admin-override",
				allows: func(p Principal, _ string) bool {
					return p.Role == user.RoleAdmin
				},
			},
			{
				name: "capability-set",
				allows: func(p Principal, perm string) bool {
					return p.HasPermission(perm)
				},
			},
		},
	}
}

// Rules lists the evaluation order by rule name.
func (g *Guard) Rules() []string {
	names := make([]string, 0, len(g.rules))
	for _, r := range g.rules {
		names = append(names, r.name)
	}
	return names
}

// RequireRole allows the principal iff its role is in allowedRoles.
func (g *Guard) RequireRole(p Principal, allowedRoles ...string) error {
	for _, role := range allowedRoles {
		if p.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// RequirePermission allows the principal iff one of the guard rules does.
func (g *Guard) RequirePermission(p Principal, perm string) error {
	for _, r := range g.rules {
		if r.allows(p, perm) {
			return nil
		}
	}
	return ErrForbidden
}

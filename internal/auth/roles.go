package auth

import (
	"fmt"
	"strings"
)

// Role identifies one of the fixed access tiers. Every authenticated actor
// carries exactly one role.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleRedTeamLead Role = "red_team_lead"
	RoleAnalyst     Role = "analyst"
	RoleViewer      Role = "viewer"
)

// AllRoles lists the known roles in descending privilege order.
var AllRoles = []Role{RoleAdmin, RoleRedTeamLead, RoleAnalyst, RoleViewer}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRedTeamLead, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

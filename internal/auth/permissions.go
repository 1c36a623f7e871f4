package auth

import (
	"fmt"
	"strings"
)

// Resource names a protected collection in the dashboard.
type Resource string

// Action names an operation on a resource.
type Action string

const (
	ResourceTactics   Resource = "tactics"
	ResourceCampaigns Resource = "campaigns"
	ResourcePayloads  Resource = "payloads"
	ResourceExports   Resource = "exports"
	ResourceSettings  Resource = "settings"
	ResourceUsers     Resource = "users"
)

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionShare  Action = "share"
)

// Permission is a single (resource, action) grant. Permissions exist only as
// entries of the static role table or as explicit grants carried in a token.
type Permission struct {
	Resource Resource
	Action   Action
}

// Key renders the grant in the "resource:action" form used in tokens and
// guard parameters, e.g. "campaigns:write".
func (p Permission) Key() string {
	return string(p.Resource) + ":" + string(p.Action)
}

// ParsePermissionKey splits a "resource:action" key back into a Permission.
func ParsePermissionKey(key string) (Permission, error) {
	parts := strings.SplitN(strings.TrimSpace(key), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Permission{}, fmt.Errorf("%w: malformed permission key %q", ErrInvalidInput, key)
	}
	return Permission{Resource: Resource(parts[0]), Action: Action(parts[1])}, nil
}

// rolePermissions is the authoritative role grant table. Grant counts are
// strictly decreasing down the privilege order, and no lower role holds a
// grant that admin lacks.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		{ResourceTactics, ActionRead},
		{ResourceTactics, ActionWrite},
		{ResourceCampaigns, ActionRead},
		{ResourceCampaigns, ActionWrite},
		{ResourceCampaigns, ActionDelete},
		{ResourceCampaigns, ActionShare},
		{ResourcePayloads, ActionRead},
		{ResourcePayloads, ActionWrite},
		{ResourceExports, ActionRead},
		{ResourceExports, ActionWrite},
		{ResourceSettings, ActionRead},
		{ResourceSettings, ActionWrite},
		{ResourceUsers, ActionRead},
		{ResourceUsers, ActionWrite},
		{ResourceUsers, ActionDelete},
	},
	RoleRedTeamLead: {
		{ResourceTactics, ActionRead},
		{ResourceCampaigns, ActionRead},
		{ResourceCampaigns, ActionWrite},
		{ResourceCampaigns, ActionDelete},
		{ResourceCampaigns, ActionShare},
		{ResourcePayloads, ActionRead},
		{ResourcePayloads, ActionWrite},
		{ResourceExports, ActionRead},
		{ResourceExports, ActionWrite},
		{ResourceSettings, ActionRead},
	},
	RoleAnalyst: {
		{ResourceTactics, ActionRead},
		{ResourceCampaigns, ActionRead},
		{ResourceCampaigns, ActionWrite},
		{ResourcePayloads, ActionRead},
		{ResourcePayloads, ActionWrite},
		{ResourceExports, ActionRead},
		{ResourceExports, ActionWrite},
	},
	RoleViewer: {
		{ResourceTactics, ActionRead},
		{ResourceCampaigns, ActionRead},
		{ResourcePayloads, ActionRead},
		{ResourceExports, ActionRead},
	},
}

// IsAllowed reports whether the role's static grant table contains the
// (resource, action) pair. Pure membership test, no I/O.
func IsAllowed(role Role, resource Resource, action Action) bool {
	for _, p := range rolePermissions[role] {
		if p.Resource == resource && p.Action == action {
			return true
		}
	}
	return false
}

// RolePermissions returns a copy of the role's grants.
func RolePermissions(role Role) []Permission {
	src := rolePermissions[role]
	out := make([]Permission, len(src))
	copy(out, src)
	return out
}

// RolePermissionKeys returns the role's grants in "resource:action" form.
func RolePermissionKeys(role Role) []string {
	src := rolePermissions[role]
	out := make([]string, 0, len(src))
	for _, p := range src {
		out = append(out, p.Key())
	}
	return out
}

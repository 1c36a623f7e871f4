package auth

// Identity is the authenticated actor attached to a request after the
// access token has been verified. It is an explicit value threaded through
// the request context, never ambient module state.
type Identity struct {
	SubjectID      string
	Email          string
	Role           Role
	OrganizationID string
	// Permissions holds explicit grants carried by the token, if any.
	// Role-derived grants are resolved through the static table on demand.
	Permissions []string
}

// IdentityFromClaims projects verified access claims into an Identity.
func IdentityFromClaims(claims *AccessClaims) Identity {
	return Identity{
		SubjectID:      claims.Subject,
		Email:          claims.Email,
		Role:           claims.Role,
		OrganizationID: claims.OrganizationID,
		Permissions:    claims.Permissions,
	}
}

// Can reports whether the identity holds the "resource:action" grant, either
// explicitly in the token or through its role. Explicit grants augment the
// role table; they cannot revoke role defaults.
func (id Identity) Can(key string) bool {
	for _, k := range id.Permissions {
		if k == key {
			return true
		}
	}
	p, err := ParsePermissionKey(key)
	if err != nil {
		return false
	}
	return IsAllowed(id.Role, p.Resource, p.Action)
}

// Missing returns the subset of keys the identity does not hold, preserving
// order. Used by guards to report exactly what was lacking.
func (id Identity) Missing(keys []string) []string {
	var missing []string
	for _, k := range keys {
		if !id.Can(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// CanAny reports whether the identity holds at least one of the keys.
func (id Identity) CanAny(keys []string) bool {
	for _, k := range keys {
		if id.Can(k) {
			return true
		}
	}
	return false
}

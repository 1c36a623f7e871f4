package httpapi

import (
	"net/http"
	"strings"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
)

// Guard is one composable authorization step. Guards short-circuit: the
// first rejecting guard writes the response and the rest never run.
type Guard func(http.Handler) http.Handler

// Chain composes guards left to right, so Chain(a, b)(h) runs a, then b,
// then h.
func Chain(guards ...Guard) Guard {
	return func(next http.Handler) http.Handler {
		for i := len(guards) - 1; i >= 0; i-- {
			next = guards[i](next)
		}
		return next
	}
}

// GuardSet builds guards bound to one token codec.
type GuardSet struct {
	codec *auth.Codec
}

// NewGuardSet wires the guard constructors to a codec.
func NewGuardSet(codec *auth.Codec) *GuardSet {
	return &GuardSet{codec: codec}
}

// Authenticate requires a valid bearer access token and places the decoded
// identity on the request context. Failure is always 401: a missing header,
// a malformed header, an expired token and a refresh token presented as an
// access token are indistinguishable to the caller.
func (g *GuardSet) Authenticate() Guard {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.ExtractBearer(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := g.codec.DecodeAccess(token)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := auth.ContextWithIdentity(r.Context(), auth.IdentityFromClaims(claims))
			ctx = auth.ContextWithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate attaches an identity when a valid bearer token is
// present but never rejects: a missing, malformed or invalid token simply
// leaves the request anonymous and the chain proceeds.
func (g *GuardSet) OptionalAuthenticate() Guard {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.ExtractBearer(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := g.codec.DecodeAccess(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := auth.ContextWithIdentity(r.Context(), auth.IdentityFromClaims(claims))
			ctx = auth.ContextWithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects with 403 unless the authenticated identity holds one
// of the given roles. Runs after Authenticate; an absent identity is a 401.
func (g *GuardSet) RequireRole(roles ...auth.Role) Guard {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if ident.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, http.StatusForbidden, "insufficient role")
		})
	}
}

// RequirePermission rejects with 403 unless the identity can perform the
// given "resource:action" grant.
func (g *GuardSet) RequirePermission(key string) Guard {
	return g.RequireAllPermissions(key)
}

// RequireAllPermissions rejects unless every listed grant is held. The
// response names the missing grants so the caller can see what to request.
func (g *GuardSet) RequireAllPermissions(keys ...string) Guard {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if missing := ident.Missing(keys); len(missing) > 0 {
				writeError(w, r, http.StatusForbidden,
					"missing permissions: "+strings.Join(missing, ", "))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission rejects unless at least one listed grant is held.
func (g *GuardSet) RequireAnyPermission(keys ...string) Guard {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if !ident.CanAny(keys) {
				writeError(w, r, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOrganization pins access to one tenant. An empty orgID means any
// organization claim is acceptable as long as one is present.
func (g *GuardSet) RequireOrganization(orgID string) Guard {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if ident.OrganizationID == "" {
				writeError(w, r, http.StatusForbidden, "no organization claim")
				return
			}
			if orgID != "" && ident.OrganizationID != orgID {
				writeError(w, r, http.StatusForbidden, "wrong organization")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

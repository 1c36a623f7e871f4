package httpapi

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/audit"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/session"
)

type loginRequest struct {
	Role           string   `json:"role"`
	OrganizationID string   `json:"organization_id,omitempty"`
	Permissions    []string `json:"permissions,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// handleLogin mints a demo session for the requested role. There is no
// password check: the dashboard's real credential flow lives with the
// external identity provider.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unknown role")
		return
	}

	var opts []session.EstablishOption
	if req.OrganizationID != "" {
		opts = append(opts, session.WithOrganization(req.OrganizationID))
	}
	if len(req.Permissions) > 0 {
		opts = append(opts, session.WithPermissions(req.Permissions...))
	}

	sess, err := a.sessions.Establish(r.Context(), role, opts...)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleRefresh validates a refresh token and issues a fresh token pair.
// Presenting an access token here fails exactly like a forged one.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, r, http.StatusBadRequest, "refresh_token is required")
		return
	}

	claims, err := a.codec.DecodeRefresh(req.RefreshToken)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	// Keep the stored session in step when it belongs to the same subject.
	if sess, ok := a.sessions.Current(r.Context()); ok && sess.User.ID == claims.Subject {
		if next, ok := a.sessions.Refresh(r.Context()); ok {
			a.recordAudit(r, "token_refresh", "session", next.ID, nil)
			writeJSON(w, http.StatusOK, tokenResponse{
				AccessToken:  next.Token,
				RefreshToken: next.RefreshToken,
				ExpiresAt:    next.ExpiresAt,
			})
			return
		}
	}

	pair, err := a.codec.Issue(auth.ClaimInput{
		SubjectID:      claims.Subject,
		Email:          claims.Email,
		Role:           claims.Role,
		OrganizationID: claims.OrganizationID,
		Permissions:    claims.Permissions,
	})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token refresh failed")
		return
	}
	a.recordAudit(r, "token_refresh", "token", claims.Subject, nil)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExpiresAt,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleMe echoes the authenticated identity with its effective grants.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":              ident.SubjectID,
		"email":           ident.Email,
		"role":            ident.Role,
		"organization_id": ident.OrganizationID,
		"permissions":     effectivePermissions(ident),
	})
}

func effectivePermissions(ident auth.Identity) []string {
	seen := make(map[string]bool)
	for _, key := range auth.RolePermissionKeys(ident.Role) {
		seen[key] = true
	}
	for _, key := range ident.Permissions {
		seen[key] = true
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// handleOAuthLogin starts the authorization-code flow at the external
// identity provider.
func (a *API) handleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	url, _, err := a.oauth.AuthCodeURL()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not start login")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// handleOAuthCallback redeems the provider callback and establishes a
// session for the mapped identity.
func (a *API) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if err := a.oauth.VerifyState(state); err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid state")
		return
	}
	in, err := a.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "identity provider rejected the login")
		return
	}

	opts := []session.EstablishOption{
		session.WithSubject(in.SubjectID),
		session.WithEmail(in.Email),
	}
	if in.OrganizationID != "" {
		opts = append(opts, session.WithOrganization(in.OrganizationID))
	}
	if len(in.Permissions) > 0 {
		opts = append(opts, session.WithPermissions(in.Permissions...))
	}
	sess, err := a.sessions.Establish(r.Context(), in.Role, opts...)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// recordAudit appends an entry attributed to the request's identity. The
// audit log never fails the caller.
func (a *API) recordAudit(r *http.Request, action, resourceType, resourceID string, details map[string]any) {
	if a.audit == nil {
		return
	}
	entry := audit.Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    clientIP(r),
		UserAgent:    r.UserAgent(),
	}
	if ident, ok := auth.IdentityFromContext(r.Context()); ok {
		entry.ActorID = ident.SubjectID
		entry.ActorEmail = ident.Email
	}
	a.audit.Record(r.Context(), entry)
}

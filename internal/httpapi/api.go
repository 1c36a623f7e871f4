// Package httpapi is the dashboard's HTTP surface: the guard chain, the
// hardening middleware and the route handlers.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/audit"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/oauth"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/obs"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/session"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/store"
)

// ReadyProbe reports whether downstream dependencies are reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries everything the HTTP layer needs. OAuth is optional; the
// rest is required.
type Deps struct {
	Codec     *auth.Codec
	Sessions  *session.Manager
	Audit     audit.Log
	Campaigns store.Campaigns
	Accounts  store.Accounts
	OAuth     *oauth.Provider
	Ready     ReadyProbe
	Version   string
}

// API is the HTTP layer.
type API struct {
	mux       *http.ServeMux
	guards    *GuardSet
	codec     *auth.Codec
	sessions  *session.Manager
	audit     audit.Log
	campaigns store.Campaigns
	accounts  store.Accounts
	oauth     *oauth.Provider
	ready     ReadyProbe
	version   string
}

func New(d Deps) *API {
	a := &API{
		mux:       http.NewServeMux(),
		guards:    NewGuardSet(d.Codec),
		codec:     d.Codec,
		sessions:  d.Sessions,
		audit:     d.Audit,
		campaigns: d.Campaigns,
		accounts:  d.Accounts,
		oauth:     d.OAuth,
		ready:     d.Ready,
		version:   d.Version,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	g := a.guards
	authed := Chain(g.Authenticate())
	adminOnly := Chain(g.Authenticate(), g.RequireRole(auth.RoleAdmin))
	auditRead := Chain(g.Authenticate(),
		g.RequireRole(auth.RoleAdmin, auth.RoleRedTeamLead),
		g.RequirePermission("settings:read"))

	// Ops surface, unguarded.
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)
	a.mux.HandleFunc("GET /v1/info", a.handleInfo)
	a.mux.Handle("GET /metrics", obs.Handler())

	// Session lifecycle.
	a.mux.HandleFunc("POST /v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("POST /v1/auth/refresh", a.handleRefresh)
	a.mux.Handle("POST /v1/auth/logout", authed(http.HandlerFunc(a.handleLogout)))
	a.mux.Handle("GET /v1/me", authed(http.HandlerFunc(a.handleMe)))

	// External identity provider bridge.
	if a.oauth != nil {
		a.mux.HandleFunc("GET /v1/auth/oauth/login", a.handleOAuthLogin)
		a.mux.HandleFunc("GET /v1/auth/oauth/callback", a.handleOAuthCallback)
	}

	// Campaigns.
	a.mux.Handle("GET /v1/campaigns",
		Chain(g.Authenticate(), g.RequirePermission("campaigns:read"))(
			http.HandlerFunc(a.handleListCampaigns)))
	a.mux.Handle("POST /v1/campaigns",
		Chain(g.Authenticate(), g.RequirePermission("campaigns:write"))(
			http.HandlerFunc(a.handleCreateCampaign)))
	a.mux.Handle("GET /v1/campaigns/{id}",
		Chain(g.Authenticate(), g.RequirePermission("campaigns:read"))(
			http.HandlerFunc(a.handleGetCampaign)))
	a.mux.Handle("PUT /v1/campaigns/{id}",
		Chain(g.Authenticate(), g.RequirePermission("campaigns:write"))(
			http.HandlerFunc(a.handleUpdateCampaign)))
	a.mux.Handle("DELETE /v1/campaigns/{id}",
		Chain(g.Authenticate(), g.RequireAllPermissions("campaigns:write", "campaigns:delete"))(
			http.HandlerFunc(a.handleDeleteCampaign)))

	// User directory, admin only.
	a.mux.Handle("GET /v1/users",
		Chain(g.Authenticate(), g.RequireRole(auth.RoleAdmin), g.RequirePermission("users:read"))(
			http.HandlerFunc(a.handleListUsers)))
	a.mux.Handle("POST /v1/users",
		Chain(g.Authenticate(), g.RequireRole(auth.RoleAdmin), g.RequirePermission("users:write"))(
			http.HandlerFunc(a.handleCreateUser)))
	a.mux.Handle("PUT /v1/users/{id}",
		Chain(g.Authenticate(), g.RequireRole(auth.RoleAdmin), g.RequirePermission("users:write"))(
			http.HandlerFunc(a.handleUpdateUser)))
	a.mux.Handle("DELETE /v1/users/{id}",
		Chain(g.Authenticate(), g.RequireRole(auth.RoleAdmin), g.RequirePermission("users:delete"))(
			http.HandlerFunc(a.handleDeleteUser)))

	// Audit log.
	a.mux.Handle("GET /v1/audit-logs", auditRead(http.HandlerFunc(a.handleQueryAudit)))
	a.mux.Handle("GET /v1/audit-logs/export", auditRead(http.HandlerFunc(a.handleExportAudit)))
	a.mux.Handle("POST /v1/audit-logs/cleanup", adminOnly(http.HandlerFunc(a.handleCleanupAudit)))
}

// Handler wraps the mux in the full middleware stack.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 20, 10)
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = RequestID(h)
	return h
}

package oauth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
)

func fakeIdP(t *testing.T, userInfo map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "idp-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer idp-access-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userInfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server) Config {
	return Config{
		ClientID:     "ares-client",
		ClientSecret: "shh",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/oauth/token",
		UserInfoURL:  srv.URL + "/userinfo",
		RedirectURL:  "http://localhost:8080/v1/auth/oauth/callback",
	}
}

func TestNewProviderConfigValidation(t *testing.T) {
	_, err := NewProvider(Config{ClientID: "x"})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestAuthCodeURLAndStateSingleUse(t *testing.T) {
	srv := fakeIdP(t, nil)
	p, err := NewProvider(testConfig(srv))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	url, state, err := p.AuthCodeURL()
	if err != nil {
		t.Fatalf("AuthCodeURL: %v", err)
	}
	if state == "" || url == "" {
		t.Fatal("expected non-empty url and state")
	}

	if err := p.VerifyState(state); err != nil {
		t.Fatalf("first redemption should pass: %v", err)
	}
	if err := p.VerifyState(state); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second redemption should fail, got %v", err)
	}
	if err := p.VerifyState("never-issued"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("unknown state should fail, got %v", err)
	}
}

func TestStateExpires(t *testing.T) {
	srv := fakeIdP(t, nil)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	clock := now
	p, err := NewProvider(testConfig(srv), WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	_, state, err := p.AuthCodeURL()
	if err != nil {
		t.Fatalf("AuthCodeURL: %v", err)
	}
	clock = now.Add(11 * time.Minute)
	if err := p.VerifyState(state); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expired state should fail, got %v", err)
	}
}

func TestExchangeMapsClaims(t *testing.T) {
	srv := fakeIdP(t, map[string]any{
		"sub":   "auth0|abc123",
		"email": "lead@ares.local",
		"name":  "Lead",
		"https://ares.app/roles":       []any{"red_team_lead"},
		"https://ares.app/org_id":      "org-7",
		"https://ares.app/permissions": []any{"exports:share"},
	})
	p, err := NewProvider(testConfig(srv))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	in, err := p.Exchange(t.Context(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if in.SubjectID != "auth0|abc123" || in.Email != "lead@ares.local" {
		t.Fatalf("identity mismatch: %+v", in)
	}
	if in.Role != auth.RoleRedTeamLead || in.OrganizationID != "org-7" {
		t.Fatalf("claim mapping wrong: %+v", in)
	}
	if len(in.Permissions) != 1 || in.Permissions[0] != "exports:share" {
		t.Fatalf("permissions not mapped: %+v", in.Permissions)
	}
}

func TestExchangeDefaultsToViewer(t *testing.T) {
	srv := fakeIdP(t, map[string]any{
		"sub":   "auth0|nobody",
		"email": "nobody@ares.local",
	})
	p, err := NewProvider(testConfig(srv))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	in, err := p.Exchange(t.Context(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if in.Role != auth.RoleViewer {
		t.Fatalf("missing role claim should default to viewer, got %s", in.Role)
	}
}

func TestExchangeRejectsIncompleteUserInfo(t *testing.T) {
	srv := fakeIdP(t, map[string]any{"email": "no-sub@ares.local"})
	p, err := NewProvider(testConfig(srv))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if _, err := p.Exchange(t.Context(), "auth-code"); !errors.Is(err, ErrUserInfo) {
		t.Fatalf("expected ErrUserInfo, got %v", err)
	}
}

func TestExchangeRequiresCode(t *testing.T) {
	srv := fakeIdP(t, nil)
	p, err := NewProvider(testConfig(srv))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if _, err := p.Exchange(t.Context(), ""); err == nil {
		t.Fatal("expected error for empty code")
	}
}

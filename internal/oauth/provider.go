// Package oauth bridges an external OAuth2 identity provider (Auth0 style)
// to the dashboard's own token claims.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
)

var (
	ErrConfig       = errors.New("oauth: incomplete provider config")
	ErrInvalidState = errors.New("oauth: unknown or expired state")
	ErrUserInfo     = errors.New("oauth: user info fetch failed")
)

const (
	defaultStateTTL = 10 * time.Minute

	// Namespaced custom claims carried in the provider's user info payload.
	claimRoles       = "https://ares.app/roles"
	claimOrgID       = "https://ares.app/org_id"
	claimPermissions = "https://ares.app/permissions"
)

// Config holds the provider endpoints and client credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

func (c Config) validate() error {
	switch {
	case c.ClientID == "":
		return fmt.Errorf("%w: client id", ErrConfig)
	case c.ClientSecret == "":
		return fmt.Errorf("%w: client secret", ErrConfig)
	case c.AuthURL == "":
		return fmt.Errorf("%w: auth url", ErrConfig)
	case c.TokenURL == "":
		return fmt.Errorf("%w: token url", ErrConfig)
	case c.UserInfoURL == "":
		return fmt.Errorf("%w: user info url", ErrConfig)
	case c.RedirectURL == "":
		return fmt.Errorf("%w: redirect url", ErrConfig)
	}
	return nil
}

// Provider drives the authorization-code flow against one upstream identity
// provider and maps its user info to local claims.
type Provider struct {
	cfg      *oauth2.Config
	infoURL  string
	now      func() time.Time
	stateTTL time.Duration

	mu     sync.Mutex
	states map[string]time.Time
}

// ProviderOption configures optional Provider behavior.
type ProviderOption func(*Provider)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ProviderOption {
	return func(p *Provider) {
		if fn != nil {
			p.now = fn
		}
	}
}

// WithStateTTL overrides how long an issued state token stays redeemable.
func WithStateTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		if ttl > 0 {
			p.stateTTL = ttl
		}
	}
}

// NewProvider validates the config and builds a provider.
func NewProvider(cfg Config, opts ...ProviderOption) (*Provider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email"}
	}
	p := &Provider{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      scopes,
		},
		infoURL:  cfg.UserInfoURL,
		now:      time.Now,
		stateTTL: defaultStateTTL,
		states:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// AuthCodeURL mints a fresh CSRF state and returns the provider's
// authorization URL carrying it.
func (p *Provider) AuthCodeURL() (url, state string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("oauth: generate state: %w", err)
	}
	state = base64.RawURLEncoding.EncodeToString(buf)

	p.mu.Lock()
	p.pruneLocked()
	p.states[state] = p.now().Add(p.stateTTL)
	p.mu.Unlock()

	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), state, nil
}

// VerifyState redeems a state token. Each state is single use.
func (p *Provider) VerifyState(state string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	deadline, ok := p.states[state]
	if !ok {
		return ErrInvalidState
	}
	delete(p.states, state)
	if p.now().After(deadline) {
		return ErrInvalidState
	}
	return nil
}

func (p *Provider) pruneLocked() {
	now := p.now()
	for s, deadline := range p.states {
		if now.After(deadline) {
			delete(p.states, s)
		}
	}
}

// Exchange trades the authorization code for provider tokens, fetches user
// info and maps it to a local claim input.
func (p *Provider) Exchange(ctx context.Context, code string) (auth.ClaimInput, error) {
	if code == "" {
		return auth.ClaimInput{}, fmt.Errorf("%w: missing authorization code", auth.ErrInvalidInput)
	}
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return auth.ClaimInput{}, fmt.Errorf("oauth: code exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.infoURL, nil)
	if err != nil {
		return auth.ClaimInput{}, err
	}
	resp, err := p.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return auth.ClaimInput{}, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return auth.ClaimInput{}, fmt.Errorf("%w: status %d: %s", ErrUserInfo, resp.StatusCode, body)
	}

	var info map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return auth.ClaimInput{}, fmt.Errorf("%w: decode: %v", ErrUserInfo, err)
	}
	return mapUserInfo(info)
}

// mapUserInfo translates the provider payload into local claims. Unknown or
// absent role claims default to viewer, the least-privileged role.
func mapUserInfo(info map[string]any) (auth.ClaimInput, error) {
	sub := stringValue(info, "sub")
	if sub == "" {
		return auth.ClaimInput{}, fmt.Errorf("%w: missing subject", ErrUserInfo)
	}
	email := stringValue(info, "email")
	if email == "" {
		return auth.ClaimInput{}, fmt.Errorf("%w: missing email", ErrUserInfo)
	}

	role := auth.RoleViewer
	for _, r := range arrayValue(info, claimRoles) {
		if parsed, err := auth.ParseRole(r); err == nil {
			role = parsed
			break
		}
	}

	return auth.ClaimInput{
		SubjectID:      sub,
		Email:          email,
		Role:           role,
		OrganizationID: stringValue(info, claimOrgID),
		Permissions:    arrayValue(info, claimPermissions),
	}, nil
}

func stringValue(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func arrayValue(data map[string]any, key string) []string {
	arr, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Package session owns the active client session: its lifecycle, lazy
// expiry and the audit events emitted on login and logout.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/audit"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
)

const defaultSessionTTL = 24 * time.Hour

// User is the session's view of the authenticated actor.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
	Role           auth.Role `json:"role"`
	OrganizationID string    `json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastLogin      time.Time `json:"last_login"`
}

// Session is one active authenticated session. Immutable once issued; a
// refresh mints a replacement, never mutates in place.
type Session struct {
	ID           string    `json:"id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	User         User      `json:"user"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session's validity window has passed.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Manager owns at most one active session. It is an explicit value handed to
// whoever needs identity, never a hidden module-level singleton. Process
// local: not designed for multi-process sharing.
type Manager struct {
	mu    sync.Mutex
	codec *auth.Codec
	store Store
	log   audit.Recorder
	now   func() time.Time
	ttl   time.Duration
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// NewManager wires the token codec, the persistence store and the audit
// recorder together.
func NewManager(codec *auth.Codec, store Store, log audit.Recorder, opts ...ManagerOption) (*Manager, error) {
	if codec == nil {
		return nil, fmt.Errorf("%w: codec is required", auth.ErrInvalidInput)
	}
	if store == nil {
		store = NewMemoryStore()
	}
	m := &Manager{
		codec: codec,
		store: store,
		log:   log,
		now:   time.Now,
		ttl:   defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// EstablishOption overrides fields of the demo identity a session is minted
// for.
type EstablishOption func(*auth.ClaimInput)

// WithSubject pins the subject id instead of generating one.
func WithSubject(id string) EstablishOption {
	return func(in *auth.ClaimInput) { in.SubjectID = id }
}

// WithEmail overrides the derived demo address.
func WithEmail(email string) EstablishOption {
	return func(in *auth.ClaimInput) { in.Email = email }
}

// WithOrganization scopes the session to a tenant.
func WithOrganization(orgID string) EstablishOption {
	return func(in *auth.ClaimInput) { in.OrganizationID = orgID }
}

// WithPermissions attaches explicit grants beyond the role defaults.
func WithPermissions(keys ...string) EstablishOption {
	return func(in *auth.ClaimInput) { in.Permissions = keys }
}

// Establish mints a new local session bound to the given role, replacing any
// prior session, and records a login audit entry.
func (m *Manager) Establish(ctx context.Context, role auth.Role, opts ...EstablishOption) (Session, error) {
	if !role.Valid() {
		return Session{}, fmt.Errorf("%w: unknown role %q", auth.ErrInvalidInput, role)
	}

	in := auth.ClaimInput{
		SubjectID: "demo_user_" + uuid.NewString(),
		Email:     string(role) + "@demo.ares.local",
		Role:      role,
	}
	for _, opt := range opts {
		opt(&in)
	}

	pair, err := m.codec.Issue(in)
	if err != nil {
		return Session{}, err
	}

	now := m.now().UTC()
	sess := Session{
		ID:           uuid.NewString(),
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User: User{
			ID:             in.SubjectID,
			Email:          strings.ToLower(in.Email),
			Name:           demoName(role),
			Role:           role,
			OrganizationID: in.OrganizationID,
			CreatedAt:      now,
			LastLogin:      now,
		},
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(sess); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	m.record(ctx, sess.User.ID, sess.User.Email, sess.ID, "login",
		map[string]any{"demo_mode": true, "role": string(role)})
	return sess, nil
}

// Current returns the active session, purging it first if it has expired.
// Expiry is checked on every read; there is no background timer.
func (m *Manager) Current(ctx context.Context) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current()
}

func (m *Manager) current() (Session, bool) {
	sess, ok, err := m.store.Load()
	if err != nil || !ok {
		return Session{}, false
	}
	if sess.Expired(m.now().UTC()) {
		_ = m.store.Clear()
		return Session{}, false
	}
	return sess, true
}

// Refresh mints a replacement session for the same subject with fresh tokens
// and a new expiry. Returns false when there is nothing to refresh.
func (m *Manager) Refresh(ctx context.Context) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.current()
	if !ok {
		return Session{}, false
	}

	pair, err := m.codec.Issue(auth.ClaimInput{
		SubjectID:      old.User.ID,
		Email:          old.User.Email,
		Role:           old.User.Role,
		OrganizationID: old.User.OrganizationID,
	})
	if err != nil {
		return Session{}, false
	}

	now := m.now().UTC()
	next := old
	next.Token = pair.AccessToken
	next.RefreshToken = pair.RefreshToken
	next.ExpiresAt = now.Add(m.ttl)
	if err := m.store.Save(next); err != nil {
		return Session{}, false
	}
	return next, true
}

// Destroy purges the active session and records a logout entry. Attribution
// happens before the purge, preferring the request's authenticated identity
// so the entry names the caller even if another login has since replaced the
// stored session.
func (m *Manager) Destroy(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.current()
	if ok {
		actorID, actorEmail := sess.User.ID, sess.User.Email
		if ident, found := auth.IdentityFromContext(ctx); found {
			actorID, actorEmail = ident.SubjectID, ident.Email
		}
		m.record(ctx, actorID, actorEmail, sess.ID, "logout", nil)
	}
	_ = m.store.Clear()
}

func (m *Manager) record(ctx context.Context, actorID, actorEmail, sessionID, action string, details map[string]any) {
	if m.log == nil {
		return
	}
	m.log.Record(ctx, audit.Entry{
		ActorID:      actorID,
		ActorEmail:   actorEmail,
		Action:       action,
		ResourceType: "session",
		Details:      details,
		SessionID:    sessionID,
	})
}

func demoName(role auth.Role) string {
	return "Demo " + strings.ToUpper(strings.ReplaceAll(string(role), "_", " "))
}

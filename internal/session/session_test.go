package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/audit"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
)

func newTestManager(t *testing.T, clock func() time.Time) (*Manager, *audit.MemoryLog) {
	t.Helper()
	codec, err := auth.NewCodec("access-secret", "refresh-secret", auth.WithClock(clock))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	log := audit.NewMemoryLogWithClock(clock)
	mgr, err := NewManager(codec, NewMemoryStore(), log, WithClock(clock))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return mgr, log
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestEstablishAndCurrent(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	mgr, log := newTestManager(t, fixedClock(now))

	sess, err := mgr.Establish(t.Context(), auth.RoleAdmin)
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if sess.User.Role != auth.RoleAdmin {
		t.Fatalf("unexpected role: %s", sess.User.Role)
	}
	if sess.User.Email != "admin@demo.ares.local" {
		t.Fatalf("unexpected email: %s", sess.User.Email)
	}
	if got := sess.ExpiresAt.Sub(now); got != 24*time.Hour {
		t.Fatalf("expected ~24h expiry, got %v", got)
	}

	current, ok := mgr.Current(t.Context())
	if !ok {
		t.Fatal("expected active session")
	}
	if current.ID != sess.ID || current.User.Role != auth.RoleAdmin {
		t.Fatalf("unexpected current session: %+v", current)
	}

	entries, _ := log.Query(t.Context(), audit.Filter{Action: "login"})
	if len(entries) != 1 {
		t.Fatalf("expected 1 login entry, got %d", len(entries))
	}
	if entries[0].ActorID != sess.User.ID || entries[0].ResourceType != "session" {
		t.Fatalf("login entry misattributed: %+v", entries[0])
	}
	if entries[0].Details["demo_mode"] != true {
		t.Fatalf("expected demo_mode detail: %v", entries[0].Details)
	}
}

func TestEstablishReplacesPriorSession(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	mgr, _ := newTestManager(t, fixedClock(now))

	first, err := mgr.Establish(t.Context(), auth.RoleViewer)
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	second, err := mgr.Establish(t.Context(), auth.RoleAnalyst)
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	current, ok := mgr.Current(t.Context())
	if !ok {
		t.Fatal("expected active session")
	}
	if current.ID == first.ID || current.ID != second.ID {
		t.Fatalf("prior session was not replaced: %+v", current)
	}
}

func TestCurrentPurgesExpiredSession(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	clock := start
	mgr, _ := newTestManager(t, func() time.Time { return clock })

	if _, err := mgr.Establish(t.Context(), auth.RoleAnalyst); err != nil {
		t.Fatalf("Establish: %v", err)
	}

	clock = start.Add(25 * time.Hour)
	if _, ok := mgr.Current(t.Context()); ok {
		t.Fatal("expired session should be purged on read")
	}
	// Purge is sticky: still absent at a later read.
	if _, ok := mgr.Current(t.Context()); ok {
		t.Fatal("session should stay absent after purge")
	}
}

func TestRefreshMintsReplacement(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	clock := start
	mgr, _ := newTestManager(t, func() time.Time { return clock })

	orig, err := mgr.Establish(t.Context(), auth.RoleRedTeamLead, WithOrganization("org-3"))
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	clock = start.Add(time.Hour)
	next, ok := mgr.Refresh(t.Context())
	if !ok {
		t.Fatal("expected refresh to succeed")
	}
	if next.Token == orig.Token {
		t.Fatal("refresh must mint a new access token")
	}
	if next.User.ID != orig.User.ID || next.User.Role != orig.User.Role || next.User.OrganizationID != "org-3" {
		t.Fatalf("refresh changed identity: %+v", next.User)
	}
	if !next.ExpiresAt.After(orig.ExpiresAt) {
		t.Fatalf("refresh should extend expiry: %v vs %v", next.ExpiresAt, orig.ExpiresAt)
	}
}

func TestRefreshWithoutSession(t *testing.T) {
	mgr, _ := newTestManager(t, fixedClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)))
	if _, ok := mgr.Refresh(t.Context()); ok {
		t.Fatal("refresh with no session should report absent")
	}
}

func TestDestroyAuditsBeforePurge(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	mgr, log := newTestManager(t, fixedClock(now))

	sess, err := mgr.Establish(t.Context(), auth.RoleAdmin)
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	mgr.Destroy(t.Context())

	if _, ok := mgr.Current(t.Context()); ok {
		t.Fatal("session should be gone after destroy")
	}
	entries, _ := log.Query(t.Context(), audit.Filter{})
	if len(entries) == 0 || entries[0].Action != "logout" {
		t.Fatalf("newest entry should be logout: %+v", entries)
	}
	if entries[0].ActorID != sess.User.ID || entries[0].SessionID != sess.ID {
		t.Fatalf("logout entry misattributed: %+v", entries[0])
	}

	// Destroy with no session is a no-op, no extra audit entry.
	mgr.Destroy(t.Context())
	again, _ := log.Query(t.Context(), audit.Filter{Action: "logout"})
	if len(again) != 1 {
		t.Fatalf("expected exactly 1 logout entry, got %d", len(again))
	}
}

func TestDestroyAttributesCallerNotStoredSession(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	mgr, log := newTestManager(t, fixedClock(now))

	first, err := mgr.Establish(t.Context(), auth.RoleAdmin)
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	// A second login evicts the first session from the shared store.
	second, err := mgr.Establish(t.Context(), auth.RoleViewer)
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	// The first client logs out with its own authenticated identity.
	ctx := auth.ContextWithIdentity(t.Context(), auth.Identity{
		SubjectID: first.User.ID,
		Email:     first.User.Email,
		Role:      first.User.Role,
	})
	mgr.Destroy(ctx)

	entries, _ := log.Query(t.Context(), audit.Filter{Action: "logout"})
	if len(entries) != 1 {
		t.Fatalf("expected 1 logout entry, got %d", len(entries))
	}
	if entries[0].ActorID != first.User.ID || entries[0].ActorEmail != first.User.Email {
		t.Fatalf("logout should name the caller, not the stored slot: %+v", entries[0])
	}
	if entries[0].SessionID != second.ID {
		t.Fatalf("purged session id should still be recorded: %+v", entries[0])
	}
}

func TestEstablishRejectsUnknownRole(t *testing.T) {
	mgr, _ := newTestManager(t, fixedClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)))
	if _, err := mgr.Establish(t.Context(), auth.Role("root")); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	store := NewFileStore(path)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	sess := Session{
		ID:        "s-1",
		Token:     "tok",
		User:      User{ID: "u-1", Email: "a@b.c", Role: auth.RoleViewer},
		ExpiresAt: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if loaded.ID != "s-1" || loaded.User.Role != auth.RoleViewer || !loaded.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatal("store should be empty after clear")
	}
	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

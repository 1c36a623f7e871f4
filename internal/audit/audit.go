// Package audit keeps the append-only record of privileged actions.
// Entries are immutable once written; the only deletion path is the
// age-based retention cleanup.
package audit

import (
	"context"
	"time"
)

// Entry is one immutable record of a privileged action.
type Entry struct {
	ID           string         `json:"id"`
	ActorID      string         `json:"actor_id"`
	ActorEmail   string         `json:"actor_email,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	SessionID    string         `json:"session_id,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
}

// Filter selects entries by any combination of actor, action, resource type
// and time range. Zero values match everything.
type Filter struct {
	ActorID      string
	Action       string
	ResourceType string
	Since        time.Time
	Until        time.Time
}

func (f Filter) matches(e Entry) bool {
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ResourceType != "" && e.ResourceType != f.ResourceType {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// Recorder appends one entry per privileged event. Implementations must
// never fail the caller's primary operation: write failures are logged and
// swallowed, since audit here is detective, not preventive.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Log is a queryable append-only audit store.
type Log interface {
	Recorder

	// Query returns matching entries newest-first.
	Query(ctx context.Context, f Filter) ([]Entry, error)

	// DeleteOlderThan removes every entry with a timestamp strictly before
	// cutoff and reports how many were removed. This is the only deletion
	// path; entries are otherwise permanent.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

func cloneDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}

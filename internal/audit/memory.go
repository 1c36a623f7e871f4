package audit

import (
	"context"
	"sync"
	"time"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/ids"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/obs"
)

// maxEntries bounds the in-memory log; the oldest entries are dropped once
// the cap is exceeded, matching the retention behavior of the client store.
const maxEntries = 1000

// MemoryLog is a process-local append-only log. Single-writer by design:
// the mutex guards one client or request-handling process, not multi-process
// sharing.
type MemoryLog struct {
	mu      sync.Mutex
	now     func() time.Time
	entries []Entry // oldest first
}

// NewMemoryLog constructs an empty in-memory audit log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{now: time.Now}
}

// NewMemoryLogWithClock constructs a log with a fixed time source for tests.
func NewMemoryLogWithClock(now func() time.Time) *MemoryLog {
	if now == nil {
		now = time.Now
	}
	return &MemoryLog{now: now}
}

// Record appends one entry, generating its id and timestamp. It never
// returns an error to the caller.
func (l *MemoryLog) Record(_ context.Context, e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	if e.ID == "" {
		e.ID = ids.NewAt(e.Timestamp)
	}
	e.Details = cloneDetails(e.Details)

	l.entries = append(l.entries, e)
	if len(l.entries) > maxEntries {
		l.entries = l.entries[len(l.entries)-maxEntries:]
	}
	obs.AuditRecorded()
}

// Query returns matching entries newest-first. Results are copies; mutating
// them does not touch the log.
func (l *MemoryLog) Query(_ context.Context, f Filter) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if !f.matches(e) {
			continue
		}
		e.Details = cloneDetails(e.Details)
		out = append(out, e)
	}
	return out, nil
}

// DeleteOlderThan removes entries with timestamps strictly before cutoff.
func (l *MemoryLog) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	removed := 0
	for _, e := range l.entries {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
	return removed, nil
}

var _ Log = (*MemoryLog)(nil)

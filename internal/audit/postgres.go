package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/ids"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/obs"
)

// PGLog implements Log on PostgreSQL.
type PGLog struct {
	db  *sql.DB
	now func() time.Time
}

// NewPGLog wraps an open database handle.
func NewPGLog(db *sql.DB) *PGLog {
	return &PGLog{db: db, now: time.Now}
}

// Record appends one entry. A write failure is logged and swallowed so the
// primary action is never blocked by the audit trail.
func (l *PGLog) Record(ctx context.Context, e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	if e.ID == "" {
		e.ID = ids.NewAt(e.Timestamp)
	}
	details, err := json.Marshal(e.Details)
	if err != nil {
		details = []byte("{}")
	}
	_, err = l.db.ExecContext(ctx,
		`insert into audit_entries(id, actor_id, actor_email, action, resource_type, resource_id, details, occurred_at, session_id, ip_address, user_agent)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.ActorID, e.ActorEmail, e.Action, e.ResourceType, e.ResourceID, details,
		e.Timestamp, e.SessionID, e.IPAddress, e.UserAgent,
	)
	if err != nil {
		obs.Event("error", "audit append failed", map[string]any{
			"action":        e.Action,
			"resource_type": e.ResourceType,
			"error":         err.Error(),
		})
		return
	}
	obs.AuditRecorded()
}

// Query returns matching entries newest-first.
func (l *PGLog) Query(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ActorID != "" {
		add("actor_id=$%d", f.ActorID)
	}
	if f.Action != "" {
		add("action=$%d", f.Action)
	}
	if f.ResourceType != "" {
		add("resource_type=$%d", f.ResourceType)
	}
	if !f.Since.IsZero() {
		add("occurred_at>=$%d", f.Since)
	}
	if !f.Until.IsZero() {
		add("occurred_at<=$%d", f.Until)
	}

	query := `select id, actor_id, actor_email, action, resource_type, resource_id, details, occurred_at, session_id, ip_address, user_agent from audit_entries`
	if len(conds) > 0 {
		query += " where " + strings.Join(conds, " and ")
	}
	query += " order by occurred_at desc"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorEmail, &e.Action, &e.ResourceType,
			&e.ResourceID, &details, &e.Timestamp, &e.SessionID, &e.IPAddress, &e.UserAgent); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(details, &e.Details)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes entries older than cutoff.
func (l *PGLog) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := l.db.ExecContext(ctx, `delete from audit_entries where occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var _ Log = (*PGLog)(nil)

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/ids"
)

// PG persists records in Postgres via database/sql.
type PG struct {
	db  *sql.DB
	now func() time.Time
}

// NewPG wraps an open database handle.
func NewPG(db *sql.DB) *PG {
	return &PG{db: db, now: time.Now}
}

// Campaigns returns the campaign collection.
func (p *PG) Campaigns() Campaigns { return (*pgCampaigns)(p) }

// Accounts returns the account collection.
func (p *PG) Accounts() Accounts { return (*pgAccounts)(p) }

type pgCampaigns PG

func (s *pgCampaigns) Create(ctx context.Context, c *Campaign) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	now := s.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	vectors, err := json.Marshal(c.SelectedVectors)
	if err != nil {
		return fmt.Errorf("marshal vectors: %w", err)
	}
	indices, err := json.Marshal(c.SelectedPayloadIndices)
	if err != nil {
		return fmt.Errorf("marshal payload indices: %w", err)
	}
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		insert into campaigns (
			id, name, description, framework, tactic_id, tactic_name,
			created_by, organization_id, selected_vectors,
			selected_payload_indices, metadata, created_at, updated_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		c.ID, c.Name, c.Description, c.Framework, c.TacticID, c.TacticName,
		c.CreatedBy, nullable(c.OrganizationID), vectors, indices, meta,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

const campaignCols = `id, name, description, framework, tactic_id, tactic_name, created_by, coalesce(organization_id,''), selected_vectors, selected_payload_indices, metadata, created_at, updated_at`

func (s *pgCampaigns) Get(ctx context.Context, id string) (*Campaign, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+campaignCols+` from campaigns where id=$1`, id)
	return scanCampaign(row)
}

func (s *pgCampaigns) List(ctx context.Context, f CampaignFilter) ([]*Campaign, error) {
	query := `select ` + campaignCols + ` from campaigns`
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.CreatedBy != "" {
		add("created_by=$%d", f.CreatedBy)
	}
	if f.OrganizationID != "" {
		add("organization_id=$%d", f.OrganizationID)
	}
	if f.Framework != "" {
		add("framework=$%d", f.Framework)
	}
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by created_at desc"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []*Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *pgCampaigns) Update(ctx context.Context, id string, upd CampaignUpdate) (*Campaign, error) {
	var (
		sets []string
		args []any
	)
	set := func(clause string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(clause, len(args)))
	}
	if upd.Name != nil {
		set("name=$%d", *upd.Name)
	}
	if upd.Description != nil {
		set("description=$%d", *upd.Description)
	}
	if upd.Framework != nil {
		set("framework=$%d", *upd.Framework)
	}
	if upd.SelectedVectors != nil {
		vectors, err := json.Marshal(upd.SelectedVectors)
		if err != nil {
			return nil, fmt.Errorf("marshal vectors: %w", err)
		}
		set("selected_vectors=$%d", vectors)
	}
	if upd.Metadata != nil {
		meta, err := json.Marshal(upd.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		set("metadata=$%d", meta)
	}
	set("updated_at=$%d", s.now().UTC())
	args = append(args, id)

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`update campaigns set %s where id=$%d returning `+campaignCols,
		strings.Join(sets, ", "), len(args)), args...)
	return scanCampaign(row)
}

func (s *pgCampaigns) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from campaigns where id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row scanner) (*Campaign, error) {
	var (
		c       Campaign
		vectors []byte
		indices []byte
		meta    []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Framework, &c.TacticID,
		&c.TacticName, &c.CreatedBy, &c.OrganizationID, &vectors, &indices,
		&meta, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan campaign: %w", err)
	}
	if len(vectors) > 0 {
		if err := json.Unmarshal(vectors, &c.SelectedVectors); err != nil {
			return nil, fmt.Errorf("decode vectors: %w", err)
		}
	}
	if len(indices) > 0 {
		if err := json.Unmarshal(indices, &c.SelectedPayloadIndices); err != nil {
			return nil, fmt.Errorf("decode payload indices: %w", err)
		}
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &c, nil
}

type pgAccounts PG

func (s *pgAccounts) Create(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	now := s.now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		insert into accounts (id, email, name, role, organization_id, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.Email, a.Name, string(a.Role), a.OrganizationID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

const accountCols = `id, email, name, role, organization_id, created_at, updated_at`

func (s *pgAccounts) Get(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountCols+` from accounts where id=$1`, id)
	return scanAccount(row)
}

func (s *pgAccounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountCols+` from accounts where email=$1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanAccount(row)
}

func (s *pgAccounts) ListByOrg(ctx context.Context, orgID string) ([]*Account, error) {
	query := `select ` + accountCols + ` from accounts`
	var args []any
	if orgID != "" {
		query += ` where organization_id=$1`
		args = append(args, orgID)
	}
	query += ` order by email`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *pgAccounts) Update(ctx context.Context, id string, upd AccountUpdate) (*Account, error) {
	var (
		sets []string
		args []any
	)
	set := func(clause string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(clause, len(args)))
	}
	if upd.Name != nil {
		set("name=$%d", *upd.Name)
	}
	if upd.Role != nil {
		set("role=$%d", string(*upd.Role))
	}
	set("updated_at=$%d", s.now().UTC())
	args = append(args, id)

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`update accounts set %s where id=$%d returning `+accountCols,
		strings.Join(sets, ", "), len(args)), args...)
	return scanAccount(row)
}

func (s *pgAccounts) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from accounts where id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row scanner) (*Account, error) {
	var (
		a    Account
		role string
	)
	err := row.Scan(&a.ID, &a.Email, &a.Name, &role, &a.OrganizationID,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Role = auth.Role(role)
	return &a, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var (
	_ Campaigns = (*pgCampaigns)(nil)
	_ Accounts  = (*pgAccounts)(nil)
)

package store

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
)

func newPGTest(t *testing.T) (*PG, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewPG(db), mock
}

func TestPGCampaignCreate(t *testing.T) {
	pg, mock := newPGTest(t)
	mock.ExpectExec("insert into campaigns").
		WithArgs(sqlmock.AnyArg(), "wave-1", "", "mitre", "TA0001", "Initial Access",
			"u-1", "org-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := &Campaign{
		Name: "wave-1", Framework: "mitre", TacticID: "TA0001",
		TacticName: "Initial Access", CreatedBy: "u-1", OrganizationID: "org-1",
	}
	if err := pg.Campaigns().Create(t.Context(), c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == "" {
		t.Fatal("create should assign an id")
	}
}

func TestPGCampaignGetNotFound(t *testing.T) {
	pg, mock := newPGTest(t)
	mock.ExpectQuery("select .* from campaigns where id=").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := pg.Campaigns().Get(t.Context(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGCampaignListFilters(t *testing.T) {
	pg, mock := newPGTest(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "name", "description", "framework", "tactic_id", "tactic_name",
		"created_by", "organization_id", "selected_vectors",
		"selected_payload_indices", "metadata", "created_at", "updated_at",
	}).AddRow("c-1", "wave-1", "", "mitre", "TA0001", "Initial Access",
		"u-1", "org-1", []byte(`["spearphishing"]`), []byte(`[0,2]`),
		[]byte(`{"severity":"high"}`), now, now)

	mock.ExpectQuery("select .* from campaigns where created_by=.* and framework=.* order by created_at desc").
		WithArgs("u-1", "mitre").
		WillReturnRows(rows)

	out, err := pg.Campaigns().List(t.Context(), CampaignFilter{CreatedBy: "u-1", Framework: "mitre"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].SelectedVectors[0] != "spearphishing" || out[0].SelectedPayloadIndices[1] != 2 {
		t.Fatalf("json columns not decoded: %+v", out[0])
	}
	if out[0].Metadata["severity"] != "high" {
		t.Fatalf("metadata not decoded: %+v", out[0].Metadata)
	}
}

func TestPGCampaignDelete(t *testing.T) {
	pg, mock := newPGTest(t)
	mock.ExpectExec("delete from campaigns where id=").
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from campaigns where id=").
		WithArgs("c-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := pg.Campaigns().Delete(t.Context(), "c-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := pg.Campaigns().Delete(t.Context(), "c-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGAccountRoundTrip(t *testing.T) {
	pg, mock := newPGTest(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("insert into accounts").
		WithArgs(sqlmock.AnyArg(), "lead@ares.local", "Lead", "red_team_lead",
			"org-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := &Account{Email: " Lead@Ares.Local ", Name: "Lead", Role: auth.RoleRedTeamLead, OrganizationID: "org-1"}
	if err := pg.Accounts().Create(t.Context(), a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows := sqlmock.NewRows([]string{
		"id", "email", "name", "role", "organization_id", "created_at", "updated_at",
	}).AddRow(a.ID, "lead@ares.local", "Lead", "red_team_lead", "org-1", now, now)
	mock.ExpectQuery("select .* from accounts where email=").
		WithArgs("lead@ares.local").
		WillReturnRows(rows)

	got, err := pg.Accounts().GetByEmail(t.Context(), "LEAD@ares.local")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.Role != auth.RoleRedTeamLead || got.OrganizationID != "org-1" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestPGAccountDuplicateEmail(t *testing.T) {
	pg, mock := newPGTest(t)
	mock.ExpectExec("insert into accounts").
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "accounts_email_key"`))

	a := &Account{Email: "lead@ares.local", Role: auth.RoleViewer}
	if err := pg.Accounts().Create(t.Context(), a); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

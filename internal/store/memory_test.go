package store

import (
	"errors"
	"testing"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
)

func TestMemoryCampaignCRUD(t *testing.T) {
	campaigns := NewMemory().Campaigns()
	ctx := t.Context()

	c := &Campaign{
		Name:            "phish-wave-1",
		Framework:       "mitre",
		TacticID:        "TA0001",
		TacticName:      "Initial Access",
		CreatedBy:       "u-1",
		OrganizationID:  "org-1",
		SelectedVectors: []string{"spearphishing"},
	}
	if err := campaigns.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		t.Fatalf("create should assign id and timestamps: %+v", c)
	}

	got, err := campaigns.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "phish-wave-1" || got.TacticID != "TA0001" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	name := "phish-wave-1b"
	updated, err := campaigns.Update(ctx, c.ID, CampaignUpdate{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != name || updated.Framework != "mitre" {
		t.Fatalf("partial update wrong: %+v", updated)
	}

	if err := campaigns.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := campaigns.Get(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := campaigns.Delete(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestMemoryCampaignListFilters(t *testing.T) {
	campaigns := NewMemory().Campaigns()
	ctx := t.Context()

	seed := []*Campaign{
		{Name: "a", Framework: "mitre", CreatedBy: "u-1", OrganizationID: "org-1"},
		{Name: "b", Framework: "owasp", CreatedBy: "u-1", OrganizationID: "org-2"},
		{Name: "c", Framework: "mitre", CreatedBy: "u-2", OrganizationID: "org-1"},
	}
	for _, c := range seed {
		if err := campaigns.Create(ctx, c); err != nil {
			t.Fatalf("Create %s: %v", c.Name, err)
		}
	}

	all, err := campaigns.List(ctx, CampaignFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("unfiltered list: n=%d err=%v", len(all), err)
	}
	byOwner, _ := campaigns.List(ctx, CampaignFilter{CreatedBy: "u-1"})
	if len(byOwner) != 2 {
		t.Fatalf("expected 2 for u-1, got %d", len(byOwner))
	}
	byBoth, _ := campaigns.List(ctx, CampaignFilter{Framework: "mitre", OrganizationID: "org-1"})
	if len(byBoth) != 2 {
		t.Fatalf("expected 2 mitre/org-1, got %d", len(byBoth))
	}
}

func TestMemoryCampaignCopyOnReturn(t *testing.T) {
	campaigns := NewMemory().Campaigns()
	ctx := t.Context()

	c := &Campaign{Name: "orig", Framework: "mitre", CreatedBy: "u-1"}
	if err := campaigns.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, _ := campaigns.Get(ctx, c.ID)
	got.Name = "mutated"
	again, _ := campaigns.Get(ctx, c.ID)
	if again.Name != "orig" {
		t.Fatal("stored record must not alias returned value")
	}
}

func TestMemoryAccountCRUD(t *testing.T) {
	accounts := NewMemory().Accounts()
	ctx := t.Context()

	a := &Account{Email: "  Lead@Ares.Local ", Name: "Lead", Role: auth.RoleRedTeamLead, OrganizationID: "org-1"}
	if err := accounts.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Email != "lead@ares.local" {
		t.Fatalf("email not normalized: %q", a.Email)
	}

	dup := &Account{Email: "lead@ares.local", Role: auth.RoleViewer}
	if err := accounts.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}

	byEmail, err := accounts.GetByEmail(ctx, "LEAD@ares.local")
	if err != nil || byEmail.ID != a.ID {
		t.Fatalf("GetByEmail: %+v err=%v", byEmail, err)
	}

	role := auth.RoleAnalyst
	updated, err := accounts.Update(ctx, a.ID, AccountUpdate{Role: &role})
	if err != nil || updated.Role != auth.RoleAnalyst {
		t.Fatalf("Update: %+v err=%v", updated, err)
	}

	others := &Account{Email: "viewer@ares.local", Role: auth.RoleViewer, OrganizationID: "org-2"}
	if err := accounts.Create(ctx, others); err != nil {
		t.Fatalf("Create: %v", err)
	}
	inOrg, _ := accounts.ListByOrg(ctx, "org-1")
	if len(inOrg) != 1 || inOrg[0].ID != a.ID {
		t.Fatalf("ListByOrg org-1: %+v", inOrg)
	}
	everyone, _ := accounts.ListByOrg(ctx, "")
	if len(everyone) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(everyone))
	}

	if err := accounts.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := accounts.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Package store persists the dashboard's campaign and user records. The
// auth core treats it as an opaque CRUD collection keyed by id.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: already exists")
)

// Campaign is one assembled attack manifest.
type Campaign struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	Description            string         `json:"description,omitempty"`
	Framework              string         `json:"framework"`
	TacticID               string         `json:"tactic_id"`
	TacticName             string         `json:"tactic_name"`
	CreatedBy              string         `json:"created_by"`
	OrganizationID         string         `json:"organization_id,omitempty"`
	SelectedVectors        []string       `json:"selected_vectors,omitempty"`
	SelectedPayloadIndices []int          `json:"selected_payload_indices,omitempty"`
	Metadata               map[string]any `json:"metadata,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// CampaignUpdate carries partial campaign changes; nil fields are untouched.
type CampaignUpdate struct {
	Name            *string
	Description     *string
	Framework       *string
	SelectedVectors []string
	Metadata        map[string]any
}

// CampaignFilter narrows campaign listings. Zero values match everything.
type CampaignFilter struct {
	CreatedBy      string
	OrganizationID string
	Framework      string
}

// Account is a dashboard user record (directory data only; credentials are
// handled by the external identity provider).
type Account struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
	Role           auth.Role `json:"role"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountUpdate carries partial account changes; nil fields are untouched.
type AccountUpdate struct {
	Name *string
	Role *auth.Role
}

// Campaigns is the campaign CRUD collection.
type Campaigns interface {
	Create(ctx context.Context, c *Campaign) error
	Get(ctx context.Context, id string) (*Campaign, error)
	List(ctx context.Context, f CampaignFilter) ([]*Campaign, error)
	Update(ctx context.Context, id string, upd CampaignUpdate) (*Campaign, error)
	Delete(ctx context.Context, id string) error
}

// Accounts is the user CRUD collection.
type Accounts interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	ListByOrg(ctx context.Context, orgID string) ([]*Account, error)
	Update(ctx context.Context, id string, upd AccountUpdate) (*Account, error)
	Delete(ctx context.Context, id string) error
}

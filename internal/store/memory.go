package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/ids"
)

// Memory keeps records in process memory. Used by tests and DSN-less
// deployments.
type Memory struct {
	mu        sync.RWMutex
	now       func() time.Time
	campaigns map[string]*Campaign
	accounts  map[string]*Account
}

// NewMemory constructs an empty in-memory record store.
func NewMemory() *Memory {
	return &Memory{
		now:       time.Now,
		campaigns: make(map[string]*Campaign),
		accounts:  make(map[string]*Account),
	}
}

// Campaigns returns the campaign collection.
func (m *Memory) Campaigns() Campaigns { return (*memCampaigns)(m) }

// Accounts returns the account collection.
func (m *Memory) Accounts() Accounts { return (*memAccounts)(m) }

type memCampaigns Memory

func (s *memCampaigns) Create(_ context.Context, c *Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = ids.New()
	}
	if _, exists := s.campaigns[c.ID]; exists {
		return ErrConflict
	}
	now := s.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *memCampaigns) Get(_ context.Context, id string) (*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memCampaigns) List(_ context.Context, f CampaignFilter) ([]*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Campaign
	for _, c := range s.campaigns {
		if f.CreatedBy != "" && c.CreatedBy != f.CreatedBy {
			continue
		}
		if f.OrganizationID != "" && c.OrganizationID != f.OrganizationID {
			continue
		}
		if f.Framework != "" && c.Framework != f.Framework {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memCampaigns) Update(_ context.Context, id string, upd CampaignUpdate) (*Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Framework != nil {
		c.Framework = *upd.Framework
	}
	if upd.SelectedVectors != nil {
		c.SelectedVectors = append([]string(nil), upd.SelectedVectors...)
	}
	if upd.Metadata != nil {
		c.Metadata = upd.Metadata
	}
	c.UpdatedAt = s.now().UTC()
	cp := *c
	return &cp, nil
}

func (s *memCampaigns) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[id]; !ok {
		return ErrNotFound
	}
	delete(s.campaigns, id)
	return nil
}

type memAccounts Memory

func (s *memAccounts) Create(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = ids.New()
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if _, exists := s.accounts[a.ID]; exists {
		return ErrConflict
	}
	for _, other := range s.accounts {
		if other.Email == a.Email {
			return ErrConflict
		}
	}
	now := s.now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *memAccounts) Get(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memAccounts) GetByEmail(_ context.Context, email string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memAccounts) ListByOrg(_ context.Context, orgID string) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Account
	for _, a := range s.accounts {
		if orgID != "" && a.OrganizationID != orgID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *memAccounts) Update(_ context.Context, id string, upd AccountUpdate) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Role != nil {
		a.Role = *upd.Role
	}
	a.UpdatedAt = s.now().UTC()
	cp := *a
	return &cp, nil
}

func (s *memAccounts) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

var (
	_ Campaigns = (*memCampaigns)(nil)
	_ Accounts  = (*memAccounts)(nil)
)

package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/store"
)

type campaignRequest struct {
	Name                   string         `json:"name"`
	Description            string         `json:"description,omitempty"`
	Framework              string         `json:"framework"`
	TacticID               string         `json:"tactic_id"`
	TacticName             string         `json:"tactic_name"`
	SelectedVectors        []string       `json:"selected_vectors,omitempty"`
	SelectedPayloadIndices []int          `json:"selected_payload_indices,omitempty"`
	Metadata               map[string]any `json:"metadata,omitempty"`
}

func (a *API) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	filter := store.CampaignFilter{
		Framework: r.URL.Query().Get("framework"),
	}
	if r.URL.Query().Get("mine") == "true" {
		filter.CreatedBy = ident.SubjectID
	}
	// Non-admins only ever see their own tenant.
	if ident.Role != auth.RoleAdmin {
		filter.OrganizationID = ident.OrganizationID
	}

	out, err := a.campaigns.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list campaigns")
		return
	}
	if out == nil {
		out = []*store.Campaign{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": out})
}

func (a *API) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())

	var req campaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if strings.TrimSpace(req.TacticID) == "" {
		writeError(w, r, http.StatusBadRequest, "tactic_id is required")
		return
	}

	c := &store.Campaign{
		Name:                   strings.TrimSpace(req.Name),
		Description:            req.Description,
		Framework:              req.Framework,
		TacticID:               req.TacticID,
		TacticName:             req.TacticName,
		CreatedBy:              ident.SubjectID,
		OrganizationID:         ident.OrganizationID,
		SelectedVectors:        req.SelectedVectors,
		SelectedPayloadIndices: req.SelectedPayloadIndices,
		Metadata:               req.Metadata,
	}
	if err := a.campaigns.Create(r.Context(), c); err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not create campaign")
		return
	}
	a.recordAudit(r, "campaign_created", "campaign", c.ID, map[string]any{
		"name": c.Name, "tactic_id": c.TacticID,
	})
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, ok := a.loadCampaign(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	c, ok := a.loadCampaign(w, r)
	if !ok {
		return
	}

	var req struct {
		Name            *string        `json:"name"`
		Description     *string        `json:"description"`
		Framework       *string        `json:"framework"`
		SelectedVectors []string       `json:"selected_vectors"`
		Metadata        map[string]any `json:"metadata"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name cannot be empty")
		return
	}

	updated, err := a.campaigns.Update(r.Context(), c.ID, store.CampaignUpdate{
		Name:            req.Name,
		Description:     req.Description,
		Framework:       req.Framework,
		SelectedVectors: req.SelectedVectors,
		Metadata:        req.Metadata,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "campaign not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not update campaign")
		return
	}
	a.recordAudit(r, "campaign_updated", "campaign", updated.ID, nil)
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	c, ok := a.loadCampaign(w, r)
	if !ok {
		return
	}
	if err := a.campaigns.Delete(r.Context(), c.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "campaign not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not delete campaign")
		return
	}
	a.recordAudit(r, "campaign_deleted", "campaign", c.ID, map[string]any{"name": c.Name})
	w.WriteHeader(http.StatusNoContent)
}

// loadCampaign fetches the addressed campaign and enforces tenant scoping.
// Cross-tenant ids are reported as not found, not forbidden, so ids cannot
// be probed.
func (a *API) loadCampaign(w http.ResponseWriter, r *http.Request) (*store.Campaign, bool) {
	id := r.PathValue("id")
	c, err := a.campaigns.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "campaign not found")
			return nil, false
		}
		writeError(w, r, http.StatusInternalServerError, "could not load campaign")
		return nil, false
	}
	ident, _ := auth.IdentityFromContext(r.Context())
	if ident.Role != auth.RoleAdmin && c.OrganizationID != "" && c.OrganizationID != ident.OrganizationID {
		writeError(w, r, http.StatusNotFound, "campaign not found")
		return nil, false
	}
	return c, true
}

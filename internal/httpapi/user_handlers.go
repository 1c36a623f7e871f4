package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/store"
)

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	out, err := a.accounts.ListByOrg(r.Context(), r.URL.Query().Get("organization_id"))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list users")
		return
	}
	if out == nil {
		out = []*store.Account{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email          string `json:"email"`
		Name           string `json:"name,omitempty"`
		Role           string `json:"role"`
		OrganizationID string `json:"organization_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unknown role")
		return
	}

	acct := &store.Account{
		Email:          req.Email,
		Name:           req.Name,
		Role:           role,
		OrganizationID: req.OrganizationID,
	}
	if err := a.accounts.Create(r.Context(), acct); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, r, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not create user")
		return
	}
	a.recordAudit(r, "user_created", "user", acct.ID, map[string]any{
		"email": acct.Email, "role": string(acct.Role),
	})
	writeJSON(w, http.StatusCreated, acct)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name *string `json:"name"`
		Role *string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	upd := store.AccountUpdate{Name: req.Name}
	if req.Role != nil {
		role, err := auth.ParseRole(*req.Role)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "unknown role")
			return
		}
		upd.Role = &role
	}

	acct, err := a.accounts.Update(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not update user")
		return
	}
	details := map[string]any{}
	if upd.Role != nil {
		details["role"] = string(*upd.Role)
	}
	a.recordAudit(r, "user_updated", "user", acct.ID, details)
	writeJSON(w, http.StatusOK, acct)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// An admin cannot delete their own account.
	if ident, ok := auth.IdentityFromContext(r.Context()); ok && ident.SubjectID == id {
		writeError(w, r, http.StatusForbidden, "cannot delete your own account")
		return
	}

	if err := a.accounts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not delete user")
		return
	}
	a.recordAudit(r, "user_deleted", "user", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

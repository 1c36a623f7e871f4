package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/audit"
)

func auditFilterFromQuery(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	f := audit.Filter{
		ActorID:      q.Get("actor_id"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return audit.Filter{}, err
		}
		f.Since = t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return audit.Filter{}, err
		}
		f.Until = t
	}
	return f, nil
}

// handleQueryAudit returns matching entries newest first.
func (a *API) handleQueryAudit(w http.ResponseWriter, r *http.Request) {
	f, err := auditFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "since/until must be RFC 3339 timestamps")
		return
	}
	entries, err := a.audit.Query(r.Context(), f)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not query audit log")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleExportAudit streams the matching entries as JSON or CSV.
func (a *API) handleExportAudit(w http.ResponseWriter, r *http.Request) {
	f, err := auditFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "since/until must be RFC 3339 timestamps")
		return
	}
	entries, err := a.audit.Query(r.Context(), f)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not query audit log")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	var (
		data        []byte
		contentType string
		filename    string
	)
	switch format {
	case "json":
		data, err = audit.ExportJSON(entries)
		contentType = "application/json; charset=utf-8"
		filename = "audit-logs.json"
	case "csv":
		data, err = audit.ExportCSV(entries)
		contentType = "text/csv; charset=utf-8"
		filename = "audit-logs.csv"
	default:
		writeError(w, r, http.StatusBadRequest, "format must be json or csv")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "export failed")
		return
	}

	a.recordAudit(r, "audit_export", "audit_log", "", map[string]any{
		"format": format, "entries": len(entries),
	})
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleCleanupAudit deletes entries older than the retention window. This
// is the only deletion path into the audit log.
func (a *API) handleCleanupAudit(w http.ResponseWriter, r *http.Request) {
	days := 90
	if v := r.URL.Query().Get("retention_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "retention_days must be a positive integer")
			return
		}
		days = n
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	removed, err := a.audit.DeleteOlderThan(r.Context(), cutoff)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "cleanup failed")
		return
	}
	a.recordAudit(r, "audit_cleanup", "audit_log", "", map[string]any{
		"retention_days": days, "removed": removed,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"removed": removed,
		"cutoff":  cutoff.Format(time.RFC3339),
	})
}

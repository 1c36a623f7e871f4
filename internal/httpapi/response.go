package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/obs"
)

// Rejection categories carried in error bodies. "unauthorized" means the
// caller's identity could not be established; "forbidden" means the identity
// is valid but lacks the required grant.
const (
	categoryUnauthorized = "unauthorized"
	categoryForbidden    = "forbidden"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the uniform error envelope. The category names the class
// of failure; the message never echoes token material.
func writeError(w http.ResponseWriter, r *http.Request, code int, message string) {
	category := errorCategory(code)
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="ares"`)
	}
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		obs.AuthFailure(category)
	}
	writeJSON(w, code, map[string]any{
		"error":      category,
		"message":    message,
		"request_id": RequestIDFromContext(r.Context()),
	})
}

func errorCategory(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return categoryUnauthorized
	case http.StatusForbidden:
		return categoryForbidden
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// decodeJSON reads a request body into v, rejecting unknown fields and
// trailing garbage.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}

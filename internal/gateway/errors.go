// ABOUTME: Maps resolver and backend failures onto HTTP status codes
// ABOUTME: Writes JSON error bodies of the form {"error": reason}

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2389/rag-gateway/internal/backend"
	"github.com/2389/rag-gateway/internal/channel"
)

// statusFor returns the HTTP status and client-facing reason for err.
func statusFor(err error) (int, string) {
	var resolveErr *channel.ResolveError
	reason := ""
	if errors.As(err, &resolveErr) {
		reason = resolveErr.Reason
	}

	switch {
	case errors.Is(err, channel.ErrUnauthorized):
		return http.StatusUnauthorized, reason
	case errors.Is(err, channel.ErrBadRequest):
		return http.StatusBadRequest, reason
	case errors.Is(err, channel.ErrNotFound):
		return http.StatusNotFound, reason
	case errors.Is(err, backend.ErrBackendUnavailable):
		return http.StatusBadGateway, "backend unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// sendError logs unclassified errors and writes the mapped response.
func (g *Gateway) sendError(w http.ResponseWriter, err error) {
	status, reason := statusFor(err)
	switch {
	case status == http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
	case status >= http.StatusInternalServerError:
		g.logger.Error("request failed", "status", status, "error", err)
	}
	sendJSONError(w, status, reason)
}

// sendJSONError writes a JSON error response.
func sendJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

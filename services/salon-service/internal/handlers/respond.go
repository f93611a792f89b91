// Package handlers exposes the salon API over HTTP. Every response uses the
// envelope {success, message, ...data}.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

type envelope map[string]any

func writeOK(w http.ResponseWriter, status int, message string, data envelope) {
	body := envelope{"success": true, "message": message}
	for k, v := range data {
		body[k] = v
	}
	httpx.WriteJSON(w, status, body)
}

// writeFailure maps domain errors to status codes. Storage failures are
// logged and answered with a generic message.
func writeFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, resource string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusBadRequest, envelope{
			"success": false,
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, model.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "This time slot is already booked")
	case errors.Is(err, model.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, model.ErrAlreadyCancelled):
		httpx.WriteError(w, http.StatusBadRequest, "Booking is already cancelled")
	case errors.Is(err, model.ErrPastDate):
		httpx.WriteError(w, http.StatusBadRequest, "Cannot book or cancel a date in the past")
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", httpx.RequestIDFromContext(r.Context()), "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decode reads a JSON body into v. It writes the 400 itself and reports false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "Invalid JSON body"
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			msg = "Request body too large"
		}
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

func query(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteError(w, http.StatusNotFound, "Route not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

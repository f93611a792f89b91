package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
)

// CORSPolicy configures WithCORS. Empty method and header lists fall back to
// what the booking UI needs.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", RequestIDHeader}
)

// WithCORS answers preflights with 204 and decorates responses for allowed
// origins. Requests from other origins pass through undecorated. No origins
// means CORS is off.
func WithCORS(p CORSPolicy) Middleware {
	origins := trimAll(p.AllowedOrigins)
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	opts := []handlers.CORSOption{
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods(orDefault(trimAll(p.AllowedMethods), defaultCORSMethods)),
		handlers.AllowedHeaders(orDefault(trimAll(p.AllowedHeaders), defaultCORSHeaders)),
		handlers.ExposedHeaders(orDefault(trimAll(p.ExposedHeaders), []string{RequestIDHeader})),
		handlers.OptionStatusCode(http.StatusNoContent),
	}
	if p.AllowCredentials {
		opts = append(opts, handlers.AllowCredentials())
	}
	if p.MaxAge > 0 {
		opts = append(opts, handlers.MaxAge(int(p.MaxAge.Seconds())))
	}
	return handlers.CORS(opts...)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// Package netserver provides small HTTP middleware shared by cmd/server:
// request/session correlation IDs threaded through context and logging,
// the way the teacher's server logs each inbound request with context.
package netserver

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
)

type contextKey int

const requestIDKey contextKey = 0

// WithRequestID wraps next, stamping every inbound request with a fresh
// correlation ID that downstream handlers can retrieve via
// RequestIDFromContext and that is logged alongside the method and path.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New()
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		log.Printf("netserver: request=%s %s %s", id, r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the correlation ID stamped by WithRequestID,
// or the zero UUID and false if none is present.
func RequestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(requestIDKey).(uuid.UUID)
	return id, ok
}

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	requestIDHeader                = "X-Request-ID"
	RequestIDContextKey contextKey = "request_id"
)

// RequestID reuses a client supplied X-Request-ID or mints a new one and
// echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(RequestIDContextKey).(string)
	return id
}

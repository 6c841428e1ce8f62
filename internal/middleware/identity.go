package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"converthub/internal/domain"
)

type contextKey string

const requesterKey contextKey = "requester"

// Identity resolves the requester from the user-id / guest-id headers set by
// the front door. Authentication itself happens upstream; this only carries
// the already-resolved identity. Requests with neither header are rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requester := domain.Requester{
			UserID:  r.Header.Get("user-id"),
			GuestID: r.Header.Get("guest-id"),
		}
		if !requester.Valid() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "no user identification provided"})
			return
		}
		ctx := context.WithValue(r.Context(), requesterKey, requester)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequesterFromContext returns the identity resolved by the Identity middleware.
func RequesterFromContext(ctx context.Context) domain.Requester {
	if v, ok := ctx.Value(requesterKey).(domain.Requester); ok {
		return v
	}
	return domain.Requester{}
}

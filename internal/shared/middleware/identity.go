package middleware

import (
	"context"
	"net/http"
	"strconv"
)

type contextKey string

// UserIDKey is the context key under which the caller's user ID is stored.
const UserIDKey contextKey = "userID"

// Identity resolves the calling user from the X-User-ID header set by the
// authenticating gateway in front of this service. Requests without a
// valid header are rejected.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
			if err != nil || userID <= 0 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

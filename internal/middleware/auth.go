// Package middleware provides HTTP middleware shared by the API routes.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth returns a handler that requires a valid Bearer token before
// delegating to next. Responds with 401 if the header is missing or wrong.
// An empty token matches nothing: callers that want an open API must not
// wrap the route at all.
func Auth(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		presented, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"message":"Not authorized!"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

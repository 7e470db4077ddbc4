package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/savevault/savevault/internal/models"
)

// TokenHeader carries the shared secret on every guarded request.
const TokenHeader = "X-SaveVault-Token"

// SharedSecret gates all API routes behind a header check. An empty token
// disables the check entirely so unconfigured personal deployments stay open.
func SharedSecret(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(TokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Invalid token"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

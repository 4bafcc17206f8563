package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"fieldquote/quotesync/internal/domain/session"
)

// Session puts the caller's identity on the request context. The bearer
// token is forwarded to the remote store, which enforces row ownership.
// When apiToken is set the remote store trusts the owner header as is, so
// the bearer must match apiToken.
func Session(apiToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			token = strings.TrimSpace(token)
			owner := strings.TrimSpace(r.Header.Get("X-Owner-Id"))
			if !ok || token == "" || owner == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if apiToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := session.With(r.Context(), session.Session{OwnerID: owner, AccessToken: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

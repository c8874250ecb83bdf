package mw

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/jamezpolley/stashboard/internal/logger"
)

// RequireToken accepts requests carrying the shared secret either as
// "Authorization: Bearer <token>" or "X-Stashboard-Token". An empty token
// disables the check (passthrough).
func RequireToken(token string, log logger.Logger) func(http.Handler) http.Handler {
	if token == "" {
		log.Debug("RequireToken: no token configured, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Stashboard-Token")
			if got == "" {
				got = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				log.Debugf("RequireToken: rejected %s %s", r.Method, r.URL.Path)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

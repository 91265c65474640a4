// Package auth enforces a static bearer token on the API.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/star/starephem/internal/metrics"
)

// Config holds authentication configuration.
type Config struct {
	Enabled bool
	Token   string

	// Public lists paths served without a token. An entry ending in "/"
	// covers every path below it.
	Public []string
}

// publicSet splits Config.Public into exact paths and subtree prefixes.
type publicSet struct {
	paths    map[string]bool
	prefixes []string
}

func newPublicSet(entries []string) publicSet {
	ps := publicSet{paths: make(map[string]bool, len(entries))}
	for _, e := range entries {
		if strings.HasSuffix(e, "/") {
			ps.prefixes = append(ps.prefixes, e)
		} else {
			ps.paths[e] = true
		}
	}
	return ps
}

func (ps publicSet) contains(path string) bool {
	if ps.paths[path] {
		return true
	}
	for _, prefix := range ps.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// bearer extracts the token of a "Bearer <token>" header.
func bearer(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	return token, ok && token != ""
}

// Middleware returns an HTTP middleware that enforces Bearer token auth
// on non-public paths when auth is enabled.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	public := newPublicSet(cfg.Public)
	secret := []byte(cfg.Token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || public.contains(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok || subtle.ConstantTimeCompare([]byte(token), secret) != 1 {
				metrics.IncRequestsRejected("unauthorized")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

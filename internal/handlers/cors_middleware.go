package handlers

import (
	"net/http"
	"strings"

	"camper-agent-service/internal/config"
)

func parseOrigins(csv string) (allowed map[string]struct{}, all bool) {
	allowed = make(map[string]struct{})
	for _, part := range strings.Split(csv, ",") {
		s := strings.TrimSpace(part)
		if s == "" {
			continue
		}
		if s == "*" {
			all = true
		}
		allowed[s] = struct{}{}
	}
	return allowed, all
}

// WithCORS answers preflight requests and sets CORS headers for the
// configured origins ("*" allows any).
func WithCORS(cfg config.Config) func(http.Handler) http.Handler {
	allowed, allowsAll := parseOrigins(cfg.CORSAllowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			_, ok := allowed[origin]
			if origin != "" && (allowsAll || ok) {
				w.Header().Set("Vary", "Origin")
				if allowsAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Request-ID, Accept")
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
				w.Header().Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

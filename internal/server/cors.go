package server

import (
	"net/http"
)

// CORS header values for all responses.
const (
	corsAllowMethods = "GET, OPTIONS"
	corsAllowHeaders = "Content-Type"
	corsMaxAge       = "86400"
)

// knownOrigins is the fixed allow-list of caller origins. One additional
// origin comes from deployment configuration (ALLOWED_ORIGIN).
var knownOrigins = []string{
	"https://quotedesk.pages.dev",
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8080",
	"http://127.0.0.1:5500",
}

// originPolicy validates caller origins against the allow-list and picks
// the Access-Control-Allow-Origin value for each response.
type originPolicy struct {
	allowed       map[string]struct{}
	defaultOrigin string
}

func newOriginPolicy(configuredOrigin string) *originPolicy {
	allowed := make(map[string]struct{}, len(knownOrigins)+1)
	for _, o := range knownOrigins {
		allowed[o] = struct{}{}
	}

	defaultOrigin := knownOrigins[0]
	if configuredOrigin != "" {
		allowed[configuredOrigin] = struct{}{}
		defaultOrigin = configuredOrigin
	}

	return &originPolicy{allowed: allowed, defaultOrigin: defaultOrigin}
}

// validate returns the Allow-Origin value for the request and whether the
// caller may proceed. An empty Origin (non-browser caller) is always
// allowed and answered with the configured default.
func (p *originPolicy) validate(origin string) (string, bool) {
	if origin == "" {
		return p.defaultOrigin, true
	}
	if _, ok := p.allowed[origin]; ok {
		return origin, true
	}
	return "", false
}

func setCORSHeaders(h http.Header, allowOrigin string) {
	h.Set("Access-Control-Allow-Origin", allowOrigin)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Max-Age", corsMaxAge)
}

// corsMiddleware enforces the origin policy and guarantees CORS headers on
// every response that passes it, error or not.
//
// go-chi/cors is deliberately not used here: it cannot answer disallowed
// origins with 403, which this API requires.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowOrigin, ok := s.origins.validate(origin)

		// Preflight short-circuits before any other processing.
		if r.Method == http.MethodOptions {
			if !ok {
				allowOrigin = s.origins.defaultOrigin
			}
			setCORSHeaders(w.Header(), allowOrigin)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if !ok {
			s.log.Warn().
				Str("origin", origin).
				Str("path", r.URL.Path).
				Msg("Rejected request from disallowed origin")
			w.WriteHeader(http.StatusForbidden)
			return
		}

		// Headers are set before the handler runs so every downstream
		// response, including errors, carries them.
		setCORSHeaders(w.Header(), allowOrigin)
		next.ServeHTTP(w, r)
	})
}

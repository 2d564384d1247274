package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// ParseOrigins splits a comma separated origin list. An empty list means "*".
func ParseOrigins(allowedOrigins string) []string {
	origins := make([]string, 0, 1)
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, "*")
	}
	return origins
}

// OriginAllowed reports whether origin is in origins. "*" matches anything.
func OriginAllowed(origins []string, origin string) bool {
	for _, allowed := range origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// CORS lets the browser chat widget call the API from its own origin.
// allowedOrigins is a comma separated list; "*" allows any origin.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: ParseOrigins(allowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}

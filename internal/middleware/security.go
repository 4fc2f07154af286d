package middleware

import "net/http"

// apiCSP forbids every fetch; responses are JSON or WebSocket frames only.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders adds security-related HTTP headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", apiCSP)
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

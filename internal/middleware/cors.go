// Package middleware holds the HTTP middleware for the bridge server.
package middleware

import "net/http"

// CORS stamps permissive cross-origin headers on every response and
// short-circuits preflight requests. The server only listens on
// loopback; the open policy exists so the plugin's embedded web view
// can call it from any origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

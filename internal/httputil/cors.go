package httputil

import "net/http"

// CORS sets permissive cross-origin headers on every response and answers
// preflight requests with 204 without calling next.
func CORS(allowOrigin, allowHeaders string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			SetCORSHeaders(w, allowOrigin, allowHeaders)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func SetCORSHeaders(w http.ResponseWriter, allowOrigin, allowHeaders string) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", allowOrigin)
	h.Set("Access-Control-Allow-Headers", allowHeaders)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

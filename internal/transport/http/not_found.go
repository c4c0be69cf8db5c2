package http

import "net/http"

// NotFoundHandler serves the catch-all route with the same JSON error
// envelope the rest of the catalog uses.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}

// Package site serves the embedded landing page.
package site

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register attaches the landing page to r. Only "/" and files under the
// embedded static directory are served; other paths fall through to the
// router's 404.
func Register(r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	h := NewRootHandler()
	r.Get("/", h.HandleRoot)
	r.Get("/index.html", h.HandleRoot)
}

// RootHandler serves the landing page.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	req := r.Clone(r.Context())
	req.URL.Path = "/"
	h.files.ServeHTTP(w, req)
}

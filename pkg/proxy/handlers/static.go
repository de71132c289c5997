package handlers

import (
	"net/http"

	"keybridge-hq/keybridge/pkg/proxy"
	"keybridge-hq/keybridge/pkg/proxy/types"
)

// StaticHandler serves the browser client's static assets from a
// directory. It is mounted at / and is a plain passthrough; the proxy's
// API endpoints take precedence on the mux.
type StaticHandler struct {
	fileServer http.Handler
}

// NewStaticHandler creates a static file handler rooted at dir.
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{
		fileServer: http.FileServer(http.Dir(dir)),
	}
}

// ServeHTTP implements http.Handler.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		_ = proxy.WriteJSON(w, http.StatusMethodNotAllowed,
			types.NewErrorResponse("method not allowed"))
		return
	}

	h.fileServer.ServeHTTP(w, r)
}

package handlers

import (
	"net/http"
	"time"

	"keybridge-hq/keybridge/pkg/proxy"
	"keybridge-hq/keybridge/pkg/proxy/types"
)

// HealthHandler handles GET /health with a static liveness response.
type HealthHandler struct{}

// NewHealthHandler creates a health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		_ = proxy.WriteJSON(w, http.StatusMethodNotAllowed,
			types.NewErrorResponse("method not allowed"))
		return
	}

	_ = proxy.WriteJSON(w, http.StatusOK, types.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Unix(),
	})
}

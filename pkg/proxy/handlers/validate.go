package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"keybridge-hq/keybridge/pkg/providers"
	"keybridge-hq/keybridge/pkg/proxy"
	"keybridge-hq/keybridge/pkg/proxy/types"
	"keybridge-hq/keybridge/pkg/telemetry/metrics"
)

// ValidateHandler handles POST /validate: probe a provider with the given
// key and report whether it is live. The probe verdict is a boolean; an
// unreachable provider reports invalid rather than failing the request.
type ValidateHandler struct {
	registry *providers.Registry
	metrics  *metrics.Collector
}

// NewValidateHandler creates a validate handler.
func NewValidateHandler(registry *providers.Registry, collector *metrics.Collector) *ValidateHandler {
	return &ValidateHandler{registry: registry, metrics: collector}
}

// ServeHTTP implements http.Handler.
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		_ = proxy.WriteJSON(w, http.StatusMethodNotAllowed,
			types.NewErrorResponse("method not allowed"))
		return
	}

	var req types.ValidateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = proxy.WriteJSON(w, http.StatusBadRequest,
			types.NewErrorResponse("invalid JSON body"))
		return
	}

	if req.Provider == "" {
		proxy.WriteError(w, &providers.ValidationError{Field: "provider", Message: "must not be empty"})
		return
	}
	if req.APIKey == "" {
		proxy.WriteError(w, &providers.ValidationError{Field: "apiKey", Message: "must not be empty"})
		return
	}

	p, err := h.registry.Get(req.Provider)
	if err != nil {
		proxy.WriteError(w, err)
		return
	}

	valid := p.CheckKey(r.Context(), req.APIKey)
	h.metrics.RecordKeyCheck(req.Provider, valid)

	slog.DebugContext(r.Context(), "key liveness probe completed",
		"provider", req.Provider,
		"valid", valid,
	)

	_ = proxy.WriteJSON(w, http.StatusOK, types.ValidateKeyResponse{Valid: valid})
}

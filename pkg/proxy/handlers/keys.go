// Package handlers implements the proxy's HTTP endpoints: key storage,
// key validation, chat forwarding, health, and static file serving.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"keybridge-hq/keybridge/pkg/keystore"
	"keybridge-hq/keybridge/pkg/proxy"
	"keybridge-hq/keybridge/pkg/proxy/types"
	"keybridge-hq/keybridge/pkg/telemetry/logging"
	"keybridge-hq/keybridge/pkg/telemetry/metrics"
)

// KeysHandler handles POST /keys: validate and store a provider API key
// server-side. The key never appears in any response.
type KeysHandler struct {
	store   keystore.Store
	metrics *metrics.Collector
}

// NewKeysHandler creates a keys handler.
func NewKeysHandler(store keystore.Store, collector *metrics.Collector) *KeysHandler {
	return &KeysHandler{store: store, metrics: collector}
}

// ServeHTTP implements http.Handler.
func (h *KeysHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		_ = proxy.WriteJSON(w, http.StatusMethodNotAllowed,
			types.NewErrorResponse("method not allowed"))
		return
	}

	var req types.SaveKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = proxy.WriteJSON(w, http.StatusBadRequest,
			types.NewErrorResponse("invalid JSON body"))
		return
	}

	if err := h.store.Save(req.Provider, req.APIKey); err != nil {
		h.metrics.RecordKeySave(req.Provider, false)
		proxy.WriteError(w, err)
		return
	}

	h.metrics.RecordKeySave(req.Provider, true)
	slog.InfoContext(r.Context(), "API key stored",
		"provider", req.Provider,
		"key_prefix", logging.RedactAPIKey(req.APIKey),
	)

	_ = proxy.WriteJSON(w, http.StatusOK, types.SaveKeyResponse{
		Success: true,
		Message: fmt.Sprintf("API key saved for provider %q", req.Provider),
	})
}

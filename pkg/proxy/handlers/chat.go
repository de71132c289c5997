package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"keybridge-hq/keybridge/pkg/keystore"
	"keybridge-hq/keybridge/pkg/providers"
	"keybridge-hq/keybridge/pkg/proxy"
	"keybridge-hq/keybridge/pkg/proxy/types"
	"keybridge-hq/keybridge/pkg/relay"
	"keybridge-hq/keybridge/pkg/telemetry/metrics"
	"keybridge-hq/keybridge/pkg/telemetry/tracing"
	"keybridge-hq/keybridge/pkg/usage"
)

// ChatHandler handles POST /chat: resolve the stored credential, dispatch
// to the provider adapter, and return either the normalized result or a
// relayed SSE stream.
//
// The credential lookup happens before provider dispatch, so a missing
// key always answers 401 regardless of whether the provider is supported.
type ChatHandler struct {
	store    keystore.Store
	registry *providers.Registry
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	usage    *usage.Recorder
}

// NewChatHandler creates a chat handler. The metrics, tracer, and usage
// arguments may be nil; the corresponding concern is then skipped.
func NewChatHandler(store keystore.Store, registry *providers.Registry, collector *metrics.Collector, tracer *tracing.Tracer, recorder *usage.Recorder) *ChatHandler {
	return &ChatHandler{
		store:    store,
		registry: registry,
		metrics:  collector,
		tracer:   tracer,
		usage:    recorder,
	}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		_ = proxy.WriteJSON(w, http.StatusMethodNotAllowed,
			types.NewErrorResponse("method not allowed"))
		return
	}

	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = proxy.WriteJSON(w, http.StatusBadRequest,
			types.NewErrorResponse("invalid JSON body"))
		return
	}

	if err := validateChatRequest(&req); err != nil {
		proxy.WriteError(w, err)
		return
	}

	// Credential resolution precedes provider dispatch: a caller without
	// a stored key learns that first, even for unknown providers.
	apiKey, err := h.store.Lookup(req.Provider)
	if err != nil {
		proxy.WriteError(w, err)
		return
	}

	p, err := h.registry.Get(req.Provider)
	if err != nil {
		proxy.WriteError(w, err)
		return
	}

	preq := &providers.ChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   req.Stream,
	}

	if req.Stream {
		h.serveStream(w, r, p, apiKey, preq)
	} else {
		h.serveComplete(w, r, p, apiKey, preq)
	}
}

// serveComplete forwards a non-streaming request and writes the
// normalized result.
func (h *ChatHandler) serveComplete(w http.ResponseWriter, r *http.Request, p providers.Provider, apiKey string, req *providers.ChatRequest) {
	ctx, span := h.tracer.Start(r.Context(), "chat.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", p.Name()),
		attribute.String("model", req.Model),
	)

	start := time.Now()
	result, err := p.Complete(ctx, apiKey, req)
	latency := time.Since(start)
	tracing.SetStatus(span, err)

	if err != nil {
		h.metrics.RecordRequest(p.Name(), req.Model, "error", latency)
		h.recordUsage(p.Name(), req.Model, latency, usage.StatusError, false, nil)
		slog.WarnContext(ctx, "chat request failed",
			"provider", p.Name(),
			"model", req.Model,
			"error", err,
		)
		proxy.WriteError(w, err)
		return
	}

	h.metrics.RecordRequest(p.Name(), req.Model, "success", latency)
	h.recordUsage(p.Name(), req.Model, latency, usage.StatusSuccess, false, result.Usage)
	slog.InfoContext(ctx, "chat request completed",
		"provider", p.Name(),
		"model", req.Model,
		"latency_ms", latency.Milliseconds(),
	)

	_ = proxy.WriteJSON(w, http.StatusOK, result)
}

// serveStream opens the upstream stream and relays it as normalized SSE.
// Failures before the stream opens are regular JSON errors; failures
// after the first byte are emitted in-band.
func (h *ChatHandler) serveStream(w http.ResponseWriter, r *http.Request, p providers.Provider, apiKey string, req *providers.ChatRequest) {
	ctx, span := h.tracer.Start(r.Context(), "chat.stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", p.Name()),
		attribute.String("model", req.Model),
	)

	start := time.Now()
	body, err := p.OpenStream(ctx, apiKey, req)
	if err != nil {
		latency := time.Since(start)
		tracing.SetStatus(span, err)
		h.metrics.RecordRequest(p.Name(), req.Model, "error", latency)
		h.recordUsage(p.Name(), req.Model, latency, usage.StatusError, true, nil)
		slog.WarnContext(ctx, "failed to open upstream stream",
			"provider", p.Name(),
			"model", req.Model,
			"error", err,
		)
		proxy.WriteError(w, err)
		return
	}

	sw := proxy.NewStreamWriter(w)
	rl := relay.New(body, p.ExtractDelta, sw)

	err = rl.Run(ctx)
	latency := time.Since(start)
	tracing.SetStatus(span, err)
	h.metrics.RecordStreamEvents(p.Name(), rl.Deltas())

	status := usage.StatusSuccess
	metricStatus := "success"
	if rl.State() == relay.StateErrored {
		status = usage.StatusError
		metricStatus = "error"
	}
	h.metrics.RecordRequest(p.Name(), req.Model, metricStatus, latency)
	h.recordUsage(p.Name(), req.Model, latency, status, true, nil)

	slog.InfoContext(ctx, "chat stream finished",
		"provider", p.Name(),
		"model", req.Model,
		"state", rl.State().String(),
		"events", rl.Deltas(),
		"latency_ms", latency.Milliseconds(),
	)
}

// recordUsage enqueues one usage row when recording is enabled.
func (h *ChatHandler) recordUsage(provider, model string, latency time.Duration, status string, streamed bool, usageRaw json.RawMessage) {
	if h.usage == nil {
		return
	}

	prompt, completion := usage.TokenCounts(usageRaw)
	h.usage.Record(&usage.Record{
		Provider:         provider,
		Model:            model,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		LatencyMS:        latency.Milliseconds(),
		Status:           status,
		Streamed:         streamed,
	})
}

// validateChatRequest checks the request fields before any dispatch.
func validateChatRequest(req *types.ChatRequest) error {
	if req.Provider == "" {
		return &providers.ValidationError{Field: "provider", Message: "must not be empty"}
	}
	if req.Model == "" {
		return &providers.ValidationError{Field: "model", Message: "must not be empty"}
	}
	if len(req.Messages) == 0 {
		return &providers.ValidationError{Field: "messages", Message: "must not be empty"}
	}
	return nil
}

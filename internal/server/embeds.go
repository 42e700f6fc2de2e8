package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/proofwall/proofwall-embed-go/internal/embed"
	errordefs "github.com/proofwall/proofwall-embed-go/internal/errors"
	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/storage"
)

// previewResponse is a draft render plus the snippets the draft would get.
type previewResponse struct {
	embed.Result
	Snippets model.Snippets `json:"snippets"`
}

// handleEmbedTypes handles GET /v1/embed-types
func (m *Mux) handleEmbedTypes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	m.writeSuccess(w, http.StatusOK, model.Catalogue())
}

// handleListEmbeds handles GET /v1/embeds
func (m *Mux) handleListEmbeds(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "handleListEmbeds")
	defer span.End()

	owner := ownerID(ctx)
	embeds, err := m.store.ListEmbeds(ctx, owner)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list embeds")
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_INTERNAL, "failed to list embeds", correlationID(ctx)))
		return
	}
	if embeds == nil {
		embeds = []model.EmbedConfiguration{}
	}
	span.SetAttributes(attribute.Int("embeds", len(embeds)))
	m.writeSuccess(w, http.StatusOK, model.ListEmbedsResponse{Embeds: embeds})
}

// handleSaveEmbed handles POST /v1/embeds with idempotency support. A body
// without id creates a configuration; a body with id replaces the caller's
// configuration of that id.
func (m *Mux) handleSaveEmbed(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "handleSaveEmbed")
	defer span.End()

	owner := ownerID(ctx)
	cid := correlationID(ctx)
	body, ok := m.readBody(w, r)
	if !ok {
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	span.SetAttributes(attribute.Bool("has_idempotency_key", idempotencyKey != ""))
	var keyHash, requestHash string
	if idempotencyKey != "" {
		keyHash = hashHex(owner + ":" + idempotencyKey)
		requestHash = hashHex(string(body))
		if m.replay(ctx, w, keyHash, requestHash) {
			return
		}
	}

	cfg, err := m.validator.DecodeEmbed(body)
	if err != nil {
		span.SetStatus(codes.Error, "schema validation failed")
		m.writeValidationError(w, cid, err)
		return
	}

	now := m.now().UTC()
	status := http.StatusOK
	if cfg.ID == "" {
		cfg.ID = newID(now)
		cfg.CreatedAt = now
		status = http.StatusCreated
	} else {
		existing, err := m.store.GetEmbed(ctx, cfg.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			m.writeErrorDef(w, errordefs.New(errordefs.EMB_NOT_FOUND, "embed not found", cid))
			return
		case err != nil:
			span.RecordError(err)
			m.writeErrorDef(w, errordefs.New(errordefs.EMB_INTERNAL, "failed to load embed", cid))
			return
		case existing.OwnerID != owner:
			m.writeErrorDef(w, errordefs.New(errordefs.EMB_OWNER_MISMATCH, "embed belongs to another owner", cid))
			return
		}
		cfg.CreatedAt = existing.CreatedAt
	}
	cfg.OwnerID = owner
	cfg.UpdatedAt = now
	span.SetAttributes(
		attribute.String("embed_id", cfg.ID),
		attribute.String("embed_type", string(cfg.EmbedType)),
	)

	if err := m.store.SaveEmbed(ctx, cfg); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			m.writeErrorDef(w, errordefs.New(errordefs.EMB_OWNER_MISMATCH, "embed belongs to another owner", cid))
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save embed")
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_INTERNAL, "failed to save embed", cid))
		return
	}

	if err := m.publisher.PublishEmbedSaved(ctx, cfg, cid); err != nil {
		m.logger.Warn("failed to publish embed saved event", "embed_id", cfg.ID, "correlation_id", cid, "error", err)
	}

	response := model.SaveEmbedResponse{Embed: cfg, Snippets: m.snippets.Generate(cfg.ID)}
	if idempotencyKey != "" {
		m.remember(ctx, keyHash, requestHash, status, response)
	}
	m.writeSuccess(w, status, response)
}

// replay writes the stored response of an earlier request with the same
// idempotency key and reports whether it did. Reusing a key for a different
// body is a conflict.
func (m *Mux) replay(ctx context.Context, w http.ResponseWriter, keyHash, requestHash string) bool {
	stored, err := m.store.GetIdempotentResponse(ctx, keyHash)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return false
	case err != nil:
		m.logger.Warn("failed to read idempotent response", "correlation_id", correlationID(ctx), "error", err)
		return false
	case stored.RequestHash != requestHash:
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_CONFLICT, "idempotency key reused with a different request", correlationID(ctx)))
		return true
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(stored.StatusCode)
	_, _ = w.Write(stored.ResponseBody)
	return true
}

func (m *Mux) remember(ctx context.Context, keyHash, requestHash string, status int, response interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]interface{}{"data": response}); err != nil {
		m.logger.Warn("failed to encode idempotent response", "error", err)
		return
	}
	expiresAt := m.now().UTC().Add(idempotencyTTL)
	if err := m.store.StoreIdempotentResponse(ctx, keyHash, requestHash, buf.Bytes(), status, expiresAt); err != nil {
		m.logger.Warn("failed to store idempotent response", "correlation_id", correlationID(ctx), "error", err)
	}
}

// loadEmbed fetches the embed named by the {id} path segment. On failure the
// error response has been written and ok is false.
func (m *Mux) loadEmbed(ctx context.Context, w http.ResponseWriter, r *http.Request) (cfg *model.EmbedConfiguration, ok bool) {
	id := r.PathValue("id")
	cfg, err := m.store.GetEmbed(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_NOT_FOUND, "embed not found", correlationID(ctx)))
		return nil, false
	case err != nil:
		m.logger.Error("failed to load embed", "embed_id", id, "error", err)
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_INTERNAL, "failed to load embed", correlationID(ctx)))
		return nil, false
	}
	return cfg, true
}

// handleGetEmbed handles GET /v1/embeds/{id}
func (m *Mux) handleGetEmbed(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "handleGetEmbed")
	defer span.End()
	span.SetAttributes(attribute.String("embed_id", r.PathValue("id")))

	cfg, ok := m.loadEmbed(ctx, w, r)
	if !ok {
		return
	}
	if cfg.OwnerID != ownerID(ctx) {
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_OWNER_MISMATCH, "embed belongs to another owner", correlationID(ctx)))
		return
	}
	m.writeSuccess(w, http.StatusOK, cfg)
}

// handleRenderEmbed handles GET /v1/embeds/{id}/render
func (m *Mux) handleRenderEmbed(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "handleRenderEmbed")
	defer span.End()
	span.SetAttributes(attribute.String("embed_id", r.PathValue("id")))

	cfg, ok := m.loadEmbed(ctx, w, r)
	if !ok {
		return
	}
	if !cfg.IsActive {
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_INACTIVE, "embed is not active", correlationID(ctx)))
		return
	}

	result, err := m.service.Render(ctx, *cfg, correlationID(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_UNAVAILABLE, "testimonials are temporarily unavailable", correlationID(ctx)))
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	m.writeSuccess(w, http.StatusOK, result)
}

// handleSnippets handles GET /v1/embeds/{id}/snippets
func (m *Mux) handleSnippets(w http.ResponseWriter, r *http.Request) {
	cfg, ok := m.loadEmbed(r.Context(), w, r)
	if !ok {
		return
	}
	m.writeSuccess(w, http.StatusOK, m.snippets.Generate(cfg.ID))
}

// handlePreview handles POST /v1/render/preview. The draft is rendered over
// the supplied records, or over the caller's stored testimonials when the
// body carries none. Drafts are never persisted or announced, and their
// snippets always carry the placeholder id.
func (m *Mux) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "handlePreview")
	defer span.End()

	cid := correlationID(ctx)
	body, ok := m.readBody(w, r)
	if !ok {
		return
	}

	var req model.PreviewRequest
	if err := json.Unmarshal(body, &req); err != nil {
		span.SetStatus(codes.Error, "invalid JSON")
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_VALIDATION, "invalid JSON", cid))
		return
	}
	if len(req.Config) == 0 {
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_VALIDATION, "config is required", cid))
		return
	}

	cfg, err := m.validator.DecodeEmbed(req.Config)
	if err != nil {
		m.writeValidationError(w, cid, err)
		return
	}
	snippets := m.snippets.Generate("")

	draft := cfg
	draft.ID = ""
	draft.OwnerID = ownerID(ctx)
	span.SetAttributes(
		attribute.String("embed_type", string(draft.EmbedType)),
		attribute.Bool("has_records", hasRecords(req.Records)),
	)

	var result embed.Result
	if hasRecords(req.Records) {
		records, err := m.validator.DecodeTestimonials(req.Records)
		if err != nil {
			m.writeValidationError(w, cid, err)
			return
		}
		result = m.service.Preview(ctx, draft, records)
	} else {
		result, err = m.service.Render(ctx, draft, cid)
		if err != nil {
			span.RecordError(err)
			m.writeErrorDef(w, errordefs.New(errordefs.EMB_UNAVAILABLE, "testimonials are temporarily unavailable", cid))
			return
		}
	}

	m.writeSuccess(w, http.StatusOK, previewResponse{Result: result, Snippets: snippets})
}

func hasRecords(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

package server

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	errordefs "github.com/proofwall/proofwall-embed-go/internal/errors"
	"github.com/proofwall/proofwall-embed-go/internal/media"
	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/storage"
)

// handleCreateTestimonial handles POST /v1/testimonials
func (m *Mux) handleCreateTestimonial(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "handleCreateTestimonial")
	defer span.End()

	cid := correlationID(ctx)
	body, ok := m.readBody(w, r)
	if !ok {
		return
	}

	t, err := m.validator.DecodeTestimonial(body)
	if err != nil {
		span.SetStatus(codes.Error, "schema validation failed")
		m.writeValidationError(w, cid, err)
		return
	}

	now := m.now().UTC()
	t.OwnerID = ownerID(ctx)
	if t.ID == "" {
		t.ID = newID(now)
	}
	if t.Status == "" {
		t.Status = model.StatusApproved
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	span.SetAttributes(
		attribute.String("testimonial_id", t.ID),
		attribute.Bool("has_video", t.HasVideo()),
	)

	if err := m.store.CreateTestimonial(ctx, t); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			m.writeErrorDef(w, errordefs.New(errordefs.EMB_CONFLICT, "testimonial already exists", cid))
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create testimonial")
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_INTERNAL, "failed to create testimonial", cid))
		return
	}
	m.writeSuccess(w, http.StatusCreated, t)
}

// handleUploadInit handles POST /v1/media/uploadInit
func (m *Mux) handleUploadInit(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "handleUploadInit")
	defer span.End()

	cid := correlationID(ctx)
	if m.mediaClient == nil {
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_UNAVAILABLE, "media storage is not configured", cid))
		return
	}

	body, ok := m.readBody(w, r)
	if !ok {
		return
	}
	req, err := m.validator.DecodeUploadInit(body)
	if err != nil {
		m.writeValidationError(w, cid, err)
		return
	}
	span.SetAttributes(
		attribute.String("mimeType", req.MimeType),
		attribute.Int64("size", req.Size),
		attribute.Bool("has_filename", req.Filename != ""),
	)

	if m.maxMediaSize > 0 && req.Size > m.maxMediaSize {
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_MEDIA_SIZE, fmt.Sprintf("media size exceeds limit of %d bytes", m.maxMediaSize), cid))
		return
	}
	if !slices.Contains(m.allowedMimeTypes, req.MimeType) {
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_MEDIA_TYPE, fmt.Sprintf("media type %s is not allowed", req.MimeType), cid))
		return
	}

	key := media.ObjectKey(m.env, ownerID(ctx), newID(m.now()), req.Filename)
	upload, err := m.mediaClient.PresignUpload(ctx, key, req.MimeType, req.Size)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to presign upload")
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_INTERNAL, "failed to generate upload URL", cid))
		return
	}
	m.writeSuccess(w, http.StatusOK, upload)
}

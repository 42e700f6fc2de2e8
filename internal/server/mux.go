// internal/server/mux.go
// Package server implements the HTTP handlers and routing for the embed service.
// Owner endpoints manage configurations and testimonials behind JWT
// authentication; public endpoints render embeds for third-party pages.
package server

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/proofwall/proofwall-embed-go/internal/embed"
	errordefs "github.com/proofwall/proofwall-embed-go/internal/errors"
	"github.com/proofwall/proofwall-embed-go/internal/event"
	"github.com/proofwall/proofwall-embed-go/internal/jwks"
	"github.com/proofwall/proofwall-embed-go/internal/media"
	"github.com/proofwall/proofwall-embed-go/internal/metrics"
	"github.com/proofwall/proofwall-embed-go/internal/schema"
	"github.com/proofwall/proofwall-embed-go/internal/snippet"
	"github.com/proofwall/proofwall-embed-go/internal/storage"
)

// ContextKey is used for context values to avoid collisions
// when storing values in request context
type ContextKey string

const (
	ContextKeyOwner         ContextKey = "owner"         // JWT subject of an owner request
	ContextKeyCorrelationID ContextKey = "correlationId" // Unique ID for request tracking
)

const (
	maxBodyBytes   = 1 << 20
	idempotencyTTL = 24 * time.Hour
	tracerName     = "embed-service"
)

// Options holds the dependencies of the HTTP API. Store is required; every
// other dependency has a usable default.
type Options struct {
	Store       storage.Store
	Publisher   event.Publisher
	Service     *embed.Service    // Defaults to a service reading from Store
	Validator   *schema.Validator // Defaults to schema.NewValidator()
	JWKS        *jwks.Client      // Defaults to the issuer's well-known JWKS
	Media       *media.S3Client   // Nil disables upload initialization
	Snippets    *snippet.Emitter  // Defaults to the public distribution host
	Logger      *slog.Logger
	JWTIssuer   string
	JWTAudience string
	Env         string // Prefix of media object keys

	MaxMediaSize       int64    // Maximum upload size in bytes
	AllowedMimeTypes   []string // Allowed MIME types for media uploads
	CORSAllowedOrigins []string // Origins allowed on owner endpoints (empty means deny all)
}

// Mux handles HTTP requests for the embed service.
type Mux struct {
	mux         *http.ServeMux
	store       storage.Store
	publisher   event.Publisher
	service     *embed.Service
	validator   *schema.Validator
	jwksClient  *jwks.Client
	jwtIssuer   string
	jwtAudience string
	mediaClient *media.S3Client
	snippets    snippet.Emitter
	metrics     *metrics.Metrics
	logger      *slog.Logger
	env         string
	now         func() time.Time

	maxMediaSize       int64
	allowedMimeTypes   []string
	corsAllowedOrigins []string
}

// NewMux creates the HTTP mux with all embed endpoints registered.
func NewMux(opts Options) (*http.ServeMux, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}

	m := &Mux{
		mux:                http.NewServeMux(),
		store:              opts.Store,
		publisher:          opts.Publisher,
		service:            opts.Service,
		validator:          opts.Validator,
		jwksClient:         opts.JWKS,
		jwtIssuer:          opts.JWTIssuer,
		jwtAudience:        opts.JWTAudience,
		mediaClient:        opts.Media,
		snippets:           snippet.NewEmitter(""),
		metrics:            metrics.NewMetrics(),
		logger:             opts.Logger,
		env:                opts.Env,
		now:                time.Now,
		maxMediaSize:       opts.MaxMediaSize,
		allowedMimeTypes:   opts.AllowedMimeTypes,
		corsAllowedOrigins: opts.CORSAllowedOrigins,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.publisher == nil {
		m.publisher = event.NewNoop()
	}
	if opts.Snippets != nil {
		m.snippets = *opts.Snippets
	}
	if m.validator == nil {
		v, err := schema.NewValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize schema validator: %w", err)
		}
		m.validator = v
	}
	if m.jwksClient == nil {
		m.jwksClient = jwks.NewClient(jwks.URLForIssuer(m.jwtIssuer))
	}
	if m.service == nil {
		svcOpts := embed.Options{Provider: m.store, Publisher: m.publisher, Logger: m.logger}
		if m.mediaClient != nil {
			svcOpts.Resolver = m.mediaClient
		}
		m.service = embed.NewService(svcOpts)
	}

	// Health endpoints
	m.mux.HandleFunc("/healthz", m.handleHealthz)
	m.mux.HandleFunc("/readyz", m.handleReadyz)
	m.mux.Handle("/metrics", promhttp.Handler())

	// Public endpoints, embeddable from any origin
	m.mux.HandleFunc("/v1/embed-types", m.withMiddleware(false, m.method(http.MethodGet, m.handleEmbedTypes)))
	m.mux.HandleFunc("/v1/embeds/{id}/render", m.withMiddleware(false, m.method(http.MethodGet, m.handleRenderEmbed)))
	m.mux.HandleFunc("/v1/embeds/{id}/snippets", m.withMiddleware(false, m.method(http.MethodGet, m.handleSnippets)))

	// Owner endpoints
	m.mux.HandleFunc("/v1/embeds", m.withMiddleware(true, m.byMethod(map[string]http.HandlerFunc{
		http.MethodGet:  m.handleListEmbeds,
		http.MethodPost: m.handleSaveEmbed,
	})))
	m.mux.HandleFunc("/v1/embeds/{id}", m.withMiddleware(true, m.method(http.MethodGet, m.handleGetEmbed)))
	m.mux.HandleFunc("/v1/render/preview", m.withMiddleware(true, m.method(http.MethodPost, m.handlePreview)))
	m.mux.HandleFunc("/v1/testimonials", m.withMiddleware(true, m.method(http.MethodPost, m.handleCreateTestimonial)))
	m.mux.HandleFunc("/v1/media/uploadInit", m.withMiddleware(true, m.method(http.MethodPost, m.handleUploadInit)))

	return m.mux, nil
}

// method ensures the HTTP method matches the expected method
func (m *Mux) method(method string, h http.HandlerFunc) http.HandlerFunc {
	return m.byMethod(map[string]http.HandlerFunc{method: h})
}

// byMethod dispatches on the request method.
func (m *Mux) byMethod(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	allowed := make([]string, 0, len(handlers))
	for method := range handlers {
		allowed = append(allowed, method)
	}
	slices.Sort(allowed)
	allow := strings.Join(allowed, ", ")

	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.Method]
		if !ok {
			w.Header().Set("Allow", allow)
			m.writeErrorDef(w, errordefs.New(errordefs.EMB_BAD_REQUEST, "method not allowed", correlationID(r.Context())))
			return
		}
		h(w, r)
	}
}

// statusRecorder captures the status code and error written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	err    error
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withMiddleware applies CORS, correlation ids, request metrics and logging,
// and JWT authentication when auth is set.
func (m *Mux) withMiddleware(auth bool, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		origin := m.allowedOrigin(r, auth)
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}

		// Handle CORS preflight requests
		if r.Method == http.MethodOptions {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Correlation-Id, Idempotency-Key")
				w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Add correlation ID if not present
		cid := r.Header.Get("X-Correlation-Id")
		if cid == "" {
			cid = uuid.New().String()
		}
		ctx, span := otel.Tracer(tracerName).Start(r.Context(), r.Method+" "+r.Pattern, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		span.SetAttributes(attribute.String("correlation_id", cid))
		r = r.WithContext(context.WithValue(ctx, ContextKeyCorrelationID, cid))
		w.Header().Set("X-Correlation-Id", cid)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			duration := time.Since(start)
			status := strconv.Itoa(rec.status)
			span.SetAttributes(attribute.Int("http.status_code", rec.status))
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
			m.metrics.HTTPRequestTotal.WithLabelValues(r.Method, r.Pattern, status).Inc()
			m.metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.Pattern, status).Observe(duration.Seconds())
			m.logRequest(r, rec.status, duration, cid, rec.err)
		}()

		if auth {
			owner, errDef := m.validateJWT(r)
			if errDef != nil {
				errDef.CorrelationID = cid
				m.writeErrorDef(rec, errDef)
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), ContextKeyOwner, owner))
		}

		h(rec, r)
	}
}

// allowedOrigin returns the Access-Control-Allow-Origin value for r, or "".
// Public endpoints are embedded on arbitrary pages and allow every origin.
func (m *Mux) allowedOrigin(r *http.Request, auth bool) string {
	if !auth {
		return "*"
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return ""
	}
	for _, allowed := range m.corsAllowedOrigins {
		if allowed == "*" || allowed == origin {
			return origin
		}
	}
	return ""
}

// validateJWT validates the bearer token and returns its subject.
func (m *Mux) validateJWT(r *http.Request) (string, *errordefs.Error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errordefs.New(errordefs.EMB_AUTHN, "missing Authorization header", "")
	}
	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || tokenString == "" {
		return "", errordefs.New(errordefs.EMB_AUTHN, "invalid Authorization header format", "")
	}

	claims, err := m.jwksClient.ValidateJWT(r.Context(), tokenString, m.jwtIssuer, m.jwtAudience)
	switch {
	case err == nil:
		return claims.Subject, nil
	case errors.Is(err, jwks.ErrExpired):
		return "", errordefs.New(errordefs.EMB_JWT_EXPIRED, "JWT token expired", "")
	case errors.Is(err, jwks.ErrMalformed):
		return "", errordefs.New(errordefs.EMB_JWT_MALFORMED, "malformed JWT", "")
	default:
		return "", errordefs.New(errordefs.EMB_JWT_INVALID, err.Error(), "")
	}
}

func correlationID(ctx context.Context) string {
	cid, _ := ctx.Value(ContextKeyCorrelationID).(string)
	return cid
}

func ownerID(ctx context.Context) string {
	owner, _ := ctx.Value(ContextKeyOwner).(string)
	return owner
}

// newID returns a lexicographically sortable id.
func newID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String()
}

func hashHex(s string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(s)))
}

// readBody reads a size-limited request body. On failure the error response
// has been written and ok is false.
func (m *Mux) readBody(w http.ResponseWriter, r *http.Request) (body []byte, ok bool) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		msg := "failed to read request body"
		if errors.As(err, &tooLarge) {
			msg = fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
		}
		m.writeErrorDef(w, errordefs.New(errordefs.EMB_VALIDATION, msg, correlationID(r.Context())))
		return nil, false
	}
	return body, true
}

// writeSuccess writes a successful response
func (m *Mux) writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

// writeErrorDef writes an error response following the embed error taxonomy
func (m *Mux) writeErrorDef(w http.ResponseWriter, err *errordefs.Error) {
	if rec, ok := w.(*statusRecorder); ok {
		rec.err = err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": err})
}

// writeValidationError reports a rejected document with every problem as details.
func (m *Mux) writeValidationError(w http.ResponseWriter, cid string, err error) {
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		m.writeErrorDef(w, errordefs.NewWithDetails(errordefs.EMB_SCHEMA_REJECT, ve.Document+" failed validation", cid, ve.Problems))
		return
	}
	m.logger.Error("validation failed unexpectedly", "correlation_id", cid, "error", err)
	m.writeErrorDef(w, errordefs.New(errordefs.EMB_INTERNAL, "failed to validate request", cid))
}

// logRequest logs request details
func (m *Mux) logRequest(r *http.Request, status int, duration time.Duration, correlationID string, err error) {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("user_agent", r.UserAgent()),
		slog.String("remote_addr", r.RemoteAddr),
	}
	if correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}
	if owner := ownerID(r.Context()); owner != "" {
		attrs = append(attrs, slog.String("owner_id", owner))
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
	}

	switch {
	case err != nil && status >= http.StatusInternalServerError:
		attrs = append(attrs, slog.String("error", err.Error()))
		m.logger.LogAttrs(r.Context(), slog.LevelError, "request completed with error", attrs...)
	case err != nil:
		attrs = append(attrs, slog.String("error", err.Error()))
		m.logger.LogAttrs(r.Context(), slog.LevelWarn, "request rejected", attrs...)
	default:
		m.logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
	}
}

// handleHealthz handles liveness health check requests
func (m *Mux) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz reports whether the store is reachable.
func (m *Mux) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := m.store.Ping(ctx); err != nil {
		m.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

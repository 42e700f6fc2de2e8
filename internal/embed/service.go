// Package embed runs one embed render: it resolves the configuration's filter
// into records, checks them for viability and renders the presentation.
package embed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/proofwall/proofwall-embed-go/internal/event"
	"github.com/proofwall/proofwall-embed-go/internal/metrics"
	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/render"
	"github.com/proofwall/proofwall-embed-go/internal/viability"
)

// DataProvider resolves a filter into the owner's records, most recent first
// and capped at the filter limit.
type DataProvider interface {
	ListTestimonials(ctx context.Context, ownerID string, filter model.FilterModel) ([]model.Testimonial, error)
}

// MediaResolver turns a stored media reference into a URL a browser can load.
type MediaResolver interface {
	ResolveURL(ctx context.Context, ref string) (string, error)
}

// Result is the outcome of one render.
type Result struct {
	Presentation render.Presentation `json:"presentation"`
	Warnings     []viability.Warning `json:"warnings"`
}

// Options configures a Service. Resolver, Publisher and Logger are optional.
type Options struct {
	Provider     DataProvider
	Resolver     MediaResolver
	Publisher    event.Publisher
	Logger       *slog.Logger
	DefaultLimit int
	MaxLimit     int
}

// Service renders embed configurations. It keeps no state between calls.
type Service struct {
	provider     DataProvider
	resolver     MediaResolver
	publisher    event.Publisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
	defaultLimit int
	maxLimit     int
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = event.NewNoop()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider:     opts.Provider,
		resolver:     opts.Resolver,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics.NewMetrics(),
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
	}
}

// Filter returns the filter actually sent to the data provider for cfg.
func (s *Service) Filter(cfg model.EmbedConfiguration) model.FilterModel {
	return cfg.Filters.Normalize(s.defaultLimit, s.maxLimit)
}

// Render loads the records selected by cfg's filter and renders them.
// Only a data provider failure is returned as an error; every other
// condition yields a presentation.
func (s *Service) Render(ctx context.Context, cfg model.EmbedConfiguration, correlationID string) (Result, error) {
	ctx, span := otel.Tracer("embed-service").Start(ctx, "Render")
	defer span.End()
	span.SetAttributes(
		attribute.String("embed_id", cfg.ID),
		attribute.String("embed_type", string(cfg.EmbedType)),
		attribute.Bool("draft", cfg.Draft()),
	)

	if s.provider == nil {
		span.SetStatus(codes.Error, "no data provider")
		return Result{}, fmt.Errorf("embed: no data provider configured")
	}

	filter := s.Filter(cfg)
	records, err := s.provider.ListTestimonials(ctx, cfg.OwnerID, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list testimonials")
		return Result{}, fmt.Errorf("failed to list testimonials: %w", err)
	}
	span.SetAttributes(attribute.Int("records", len(records)))

	records = s.resolveMedia(ctx, records)
	result := s.run(cfg, records)
	span.SetAttributes(
		attribute.String("strategy", string(result.Presentation.Strategy)),
		attribute.Int("warnings", len(result.Warnings)),
	)

	if !cfg.Draft() {
		s.publishRendered(ctx, cfg, result, len(records), correlationID)
	}
	return result, nil
}

// Preview renders cfg over caller-supplied records without touching the data
// provider. Media references are resolved like in Render.
func (s *Service) Preview(ctx context.Context, cfg model.EmbedConfiguration, records []model.Testimonial) Result {
	ctx, span := otel.Tracer("embed-service").Start(ctx, "Preview")
	defer span.End()
	span.SetAttributes(
		attribute.String("embed_type", string(cfg.EmbedType)),
		attribute.Int("records", len(records)),
	)

	return s.run(cfg, s.resolveMedia(ctx, records))
}

func (s *Service) run(cfg model.EmbedConfiguration, records []model.Testimonial) Result {
	style := cfg.Style()
	strategy := render.SelectStrategy(cfg.EmbedType, style.Preset)

	start := time.Now()
	warnings := viability.Check(cfg.EmbedType, style, records)
	presentation := render.RenderStrategy(strategy, style, records)
	s.metrics.ObserveRender(string(cfg.EmbedType), string(strategy.ID), len(records), time.Since(start))

	for _, w := range warnings {
		s.metrics.ViabilityWarningsTotal.WithLabelValues(string(cfg.EmbedType), string(w.Code), string(w.Severity)).Inc()
	}
	if strategy.ID == render.NotImplementedID {
		s.logger.Warn("embed type not implemented", "embed_id", cfg.ID, "embed_type", cfg.EmbedType)
	}
	if warnings == nil {
		warnings = []viability.Warning{}
	}
	return Result{Presentation: presentation, Warnings: warnings}
}

// resolveMedia returns copies of records with media references resolved.
// A reference that cannot be resolved keeps its stored value.
func (s *Service) resolveMedia(ctx context.Context, records []model.Testimonial) []model.Testimonial {
	if s.resolver == nil || len(records) == 0 {
		return records
	}
	out := make([]model.Testimonial, len(records))
	for i, t := range records {
		t.AvatarURL = s.resolve(ctx, t.ID, t.AvatarURL)
		t.ImageURL = s.resolve(ctx, t.ID, t.ImageURL)
		t.VideoURL = s.resolve(ctx, t.ID, t.VideoURL)
		out[i] = t
	}
	return out
}

func (s *Service) resolve(ctx context.Context, recordID, ref string) string {
	if ref == "" {
		return ""
	}
	url, err := s.resolver.ResolveURL(ctx, ref)
	if err != nil {
		s.logger.Warn("failed to resolve media reference", "record_id", recordID, "ref", ref, "error", err)
		return ref
	}
	return url
}

func (s *Service) publishRendered(ctx context.Context, cfg model.EmbedConfiguration, result Result, records int, correlationID string) {
	warnings := make([]string, len(result.Warnings))
	for i, w := range result.Warnings {
		warnings[i] = string(w.Code)
	}
	err := s.publisher.PublishEmbedRendered(ctx, event.Rendered{
		EmbedID:   cfg.ID,
		OwnerID:   cfg.OwnerID,
		EmbedType: cfg.EmbedType,
		Strategy:  string(result.Presentation.Strategy),
		Records:   records,
		Warnings:  warnings,
	}, correlationID)
	if err != nil {
		s.logger.Warn("failed to publish embed.rendered", "embed_id", cfg.ID, "correlation_id", correlationID, "error", err)
	}
}

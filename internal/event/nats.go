// internal/event/nats.go
// Package event publishes embed lifecycle events to NATS JetStream.
// Consumers use them for analytics and cache invalidation in other services.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/proofwall/proofwall-embed-go/internal/metrics"
	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// Stream and subject names.
const (
	StreamName      = "PW_EMBEDS"
	SubjectSaved    = "embeds.saved"
	SubjectRendered = "embeds.rendered"

	TypeEmbedSaved    = "embed.saved"
	TypeEmbedRendered = "embed.rendered"

	envelopeVersion = "1.0.0"
)

// DedupWindow is the period in which repeated render events of one embed are dropped.
const DedupWindow = 2 * time.Minute

// Publisher defines the event publishing operations required by the embed service.
type Publisher interface {
	// PublishEmbedSaved announces a created or updated configuration.
	PublishEmbedSaved(ctx context.Context, cfg model.EmbedConfiguration, correlationID string) error

	// PublishEmbedRendered announces a public render of a saved embed.
	PublishEmbedRendered(ctx context.Context, r Rendered, correlationID string) error

	// Close closes the publisher connection
	Close() error
}

// Rendered is the payload of an embed.rendered event.
type Rendered struct {
	EmbedID   string          `json:"embedId"`
	OwnerID   string          `json:"ownerId"`
	EmbedType model.EmbedType `json:"embedType"`
	Strategy  string          `json:"strategy"`
	Records   int             `json:"records"`
	Warnings  []string        `json:"warnings,omitempty"` // Warning codes
}

// Envelope is the standard structure every published event is wrapped in.
type Envelope struct {
	Type          string      `json:"type"`
	Version       string      `json:"version"`
	OccurredAt    time.Time   `json:"occurredAt"`
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload"`
}

func newEnvelope(eventType, correlationID string, payload interface{}, now time.Time) Envelope {
	return Envelope{
		Type:          eventType,
		Version:       envelopeVersion,
		OccurredAt:    now.UTC(),
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

// noop is used when NATS is not configured or unreachable.
type noop struct{}

// NewNoop returns a Publisher that drops every event.
func NewNoop() Publisher { return noop{} }

func (noop) Close() error { return nil }

func (noop) PublishEmbedSaved(context.Context, model.EmbedConfiguration, string) error { return nil }

func (noop) PublishEmbedRendered(context.Context, Rendered, string) error { return nil }

// natsPub is the NATS JetStream implementation of Publisher.
type natsPub struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	dedup   *dedup
	metrics *metrics.Metrics
}

// NewPublisher connects to url and ensures the embed stream exists.
// An empty url, or any connection failure, yields a no-op publisher.
func NewPublisher(url string) Publisher {
	if url == "" {
		return NewNoop()
	}

	nc, err := nats.Connect(url, nats.Name("proofwall-embed"))
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return NewNoop()
	}

	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", "error", err)
		nc.Close()
		return NewNoop()
	}

	if err := initStream(js); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", "error", err)
		nc.Close()
		return NewNoop()
	}

	return &natsPub{
		nc:      nc,
		js:      js,
		dedup:   newDedup(DedupWindow, time.Now),
		metrics: metrics.NewMetrics(),
	}
}

// initStream creates the PW_EMBEDS stream when it does not exist yet.
func initStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{"embeds.>"},
		Retention:  nats.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Discard:    nats.DiscardOld,
		Storage:    nats.FileStorage,
		Duplicates: DedupWindow,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return fmt.Errorf("failed to create %s stream: %w", StreamName, err)
	}
	return nil
}

func (p *natsPub) Close() error {
	if p.nc != nil {
		return p.nc.Drain()
	}
	return nil
}

func (p *natsPub) PublishEmbedSaved(ctx context.Context, cfg model.EmbedConfiguration, correlationID string) error {
	env := newEnvelope(TypeEmbedSaved, correlationID, cfg, time.Now())
	msgID := fmt.Sprintf("%s:%d", cfg.ID, cfg.UpdatedAt.UnixNano())
	return p.publish(ctx, SubjectSaved, msgID, env)
}

// PublishEmbedRendered drops events for an embed already announced within DedupWindow.
func (p *natsPub) PublishEmbedRendered(ctx context.Context, r Rendered, correlationID string) error {
	if !p.dedup.allow(r.EmbedID) {
		return nil
	}
	env := newEnvelope(TypeEmbedRendered, correlationID, r, time.Now())
	if err := p.publish(ctx, SubjectRendered, "", env); err != nil {
		p.dedup.forget(r.EmbedID)
		return err
	}
	return nil
}

func (p *natsPub) publish(ctx context.Context, subject, msgID string, env Envelope) error {
	start := time.Now()
	b, err := json.Marshal(env)
	if err == nil {
		opts := []nats.PubOpt{nats.Context(ctx)}
		if msgID != "" {
			opts = append(opts, nats.MsgId(msgID))
		}
		_, err = p.js.Publish(subject, b, opts...)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.EventPublishTotal.WithLabelValues(env.Type, status).Inc()
	p.metrics.EventPublishDuration.WithLabelValues(env.Type, status).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("publish %s: %w", env.Type, err)
	}
	return nil
}

// dedup remembers when each key was last allowed through.
type dedup struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func newDedup(window time.Duration, now func() time.Time) *dedup {
	return &dedup{window: window, now: now, seen: make(map[string]time.Time)}
}

// allow reports whether key may be published and, if so, marks it as seen.
func (d *dedup) allow(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.window {
		return false
	}

	// Drop expired entries so the map stays bounded by the active embeds.
	for k, t := range d.seen {
		if now.Sub(t) >= d.window {
			delete(d.seen, k)
		}
	}
	d.seen[key] = now
	return true
}

// forget clears key after a failed publish so the next render retries.
func (d *dedup) forget(key string) {
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
}

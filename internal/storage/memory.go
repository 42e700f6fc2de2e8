// internal/storage/memory.go
// Package storage provides implementations of the Store interface
// for both in-memory and PostgreSQL storage backends.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// Standard errors returned by the storage layer
var (
	ErrNotFound = errors.New("not found") // Returned when a record is not found
	ErrConflict = errors.New("conflict")  // Returned when a record already exists or belongs to another owner
)

// Store defines the storage operations required by the embed service.
// This interface is implemented by both in-memory and PostgreSQL storage backends.
type Store interface {
	// SaveEmbed inserts or updates a configuration. Updating an id that
	// belongs to another owner is ErrConflict.
	SaveEmbed(ctx context.Context, cfg model.EmbedConfiguration) error
	GetEmbed(ctx context.Context, id string) (*model.EmbedConfiguration, error)
	// ListEmbeds returns the owner's configurations, most recently updated first.
	ListEmbeds(ctx context.Context, ownerID string) ([]model.EmbedConfiguration, error)

	// Testimonial operations
	CreateTestimonial(ctx context.Context, t model.Testimonial) error // Create a new testimonial
	// ListTestimonials returns the owner's testimonials matching filter, most
	// recent first with ties broken by id, capped at filter.LimitValue().
	ListTestimonials(ctx context.Context, ownerID string, filter model.FilterModel) ([]model.Testimonial, error)

	// Idempotency operations
	StoreIdempotentResponse(ctx context.Context, keyHash, requestHash string, responseBody []byte, statusCode int, expiresAt time.Time) error
	GetIdempotentResponse(ctx context.Context, keyHash string) (*IdempotentResponse, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close()
}

// IdempotentResponse represents a cached idempotent response
type IdempotentResponse struct {
	RequestHash  string    // Hash of the request that produced the response
	ResponseBody []byte    // Cached response body
	StatusCode   int       // HTTP status code
	ExpiresAt    time.Time // When the entry expires
}

// memory implements the Store interface using in-memory storage.
// It's intended for development and testing purposes.
type memory struct {
	mu           sync.RWMutex
	embeds       map[string]model.EmbedConfiguration // Configuration id to configuration
	testimonials map[string]model.Testimonial        // Testimonial id to testimonial
	byOwner      map[string][]string                 // Owner id to testimonial ids
	idempotency  map[string]*IdempotentResponse      // Key hash to cached response
	now          func() time.Time
}

// NewMemory creates a new in-memory storage implementation.
func NewMemory() Store {
	return &memory{
		embeds:       make(map[string]model.EmbedConfiguration),
		testimonials: make(map[string]model.Testimonial),
		byOwner:      make(map[string][]string),
		idempotency:  make(map[string]*IdempotentResponse),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (m *memory) SaveEmbed(ctx context.Context, cfg model.EmbedConfiguration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.embeds[cfg.ID]; ok {
		if existing.OwnerID != cfg.OwnerID {
			return ErrConflict
		}
		cfg.CreatedAt = existing.CreatedAt
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = m.now()
	}
	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = m.now()
	}
	m.embeds[cfg.ID] = cloneEmbed(cfg)
	return nil
}

func (m *memory) GetEmbed(ctx context.Context, id string) (*model.EmbedConfiguration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.embeds[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneEmbed(cfg)
	return &out, nil
}

func (m *memory) ListEmbeds(ctx context.Context, ownerID string) ([]model.EmbedConfiguration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.EmbedConfiguration, 0)
	for _, cfg := range m.embeds {
		if cfg.OwnerID == ownerID {
			out = append(out, cloneEmbed(cfg))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memory) CreateTestimonial(ctx context.Context, t model.Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.testimonials[t.ID]; exists {
		return ErrConflict
	}
	t.Tags = append([]string(nil), t.Tags...)
	m.testimonials[t.ID] = t
	m.byOwner[t.OwnerID] = append(m.byOwner[t.OwnerID], t.ID)
	return nil
}

func (m *memory) ListTestimonials(ctx context.Context, ownerID string, filter model.FilterModel) ([]model.Testimonial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Testimonial, 0)
	for _, id := range m.byOwner[ownerID] {
		t := m.testimonials[id]
		if filter.Matches(t) {
			t.Tags = append([]string(nil), t.Tags...)
			out = append(out, t)
		}
	}
	SortTestimonials(out)
	if limit := filter.LimitValue(); limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// StoreIdempotentResponse stores an idempotent response in memory. A live
// entry under the same key for a different request is a conflict.
func (m *memory) StoreIdempotentResponse(ctx context.Context, keyHash, requestHash string, responseBody []byte, statusCode int, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.idempotency[keyHash]; ok && existing.RequestHash != requestHash && m.now().Before(existing.ExpiresAt) {
		return ErrConflict
	}

	responseCopy := make([]byte, len(responseBody))
	copy(responseCopy, responseBody)

	m.idempotency[keyHash] = &IdempotentResponse{
		RequestHash:  requestHash,
		ResponseBody: responseCopy,
		StatusCode:   statusCode,
		ExpiresAt:    expiresAt,
	}
	return nil
}

// GetIdempotentResponse retrieves a cached idempotent response from memory
func (m *memory) GetIdempotentResponse(ctx context.Context, keyHash string) (*IdempotentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	response, exists := m.idempotency[keyHash]
	if !exists {
		return nil, ErrNotFound
	}
	if !m.now().Before(response.ExpiresAt) {
		delete(m.idempotency, keyHash)
		return nil, ErrNotFound
	}
	out := *response
	return &out, nil
}

func (m *memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *memory) Close() {}

// SortTestimonials orders testimonials most recent first, ties broken by id.
func SortTestimonials(ts []model.Testimonial) {
	sort.SliceStable(ts, func(i, j int) bool {
		if !ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].CreatedAt.After(ts[j].CreatedAt)
		}
		return ts[i].ID < ts[j].ID
	})
}

func cloneEmbed(cfg model.EmbedConfiguration) model.EmbedConfiguration {
	cfg.Filters.FormIDs = append([]string(nil), cfg.Filters.FormIDs...)
	cfg.Filters.Tags = append([]string(nil), cfg.Filters.Tags...)
	return cfg
}

// internal/storage/postgres.go
// Package storage provides PostgreSQL implementation of the Store interface.
// This implementation is intended for production use with persistent data storage.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proofwall/proofwall-embed-go/internal/metrics"
	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// postgres stores embed configurations, testimonials and idempotency entries.
type postgres struct {
	db      *pgxpool.Pool
	metrics *metrics.Metrics
}

// NewPostgres creates a new PostgreSQL storage implementation.
// It establishes a connection pool to the database and initializes the schema.
func NewPostgres(dsn string) (Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30
	config.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &postgres{db: pool, metrics: metrics.NewMetrics()}, nil
}

// initSchema creates all required tables and indexes if they don't already exist.
func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
		-- Embed configurations
		CREATE TABLE IF NOT EXISTS embeds (
		    id TEXT PRIMARY KEY,                     -- ULID assigned on first save
		    owner_id TEXT NOT NULL,                  -- Owning account (JWT subject)
		    name TEXT NOT NULL,
		    embed_type TEXT NOT NULL,
		    filters JSONB NOT NULL,                  -- FilterModel
		    style_config JSONB NOT NULL,             -- Flat wire style parameters
		    is_active BOOLEAN NOT NULL DEFAULT TRUE,
		    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_embeds_owner_updated_at ON embeds(owner_id, updated_at DESC);

		-- Testimonials collected for an owner
		CREATE TABLE IF NOT EXISTS testimonials (
		    id TEXT PRIMARY KEY,
		    owner_id TEXT NOT NULL,
		    form_id TEXT NOT NULL DEFAULT '',
		    status TEXT NOT NULL,
		    message TEXT NOT NULL DEFAULT '',
		    rating INTEGER CHECK (rating BETWEEN 1 AND 5),  -- NULL when unrated
		    author_name TEXT NOT NULL,
		    author_company TEXT NOT NULL DEFAULT '',
		    avatar_url TEXT NOT NULL DEFAULT '',
		    image_url TEXT NOT NULL DEFAULT '',
		    video_url TEXT NOT NULL DEFAULT '',
		    tags TEXT[] NOT NULL DEFAULT '{}',
		    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_testimonials_owner_status_created_at ON testimonials(owner_id, status, created_at DESC, id);
		CREATE INDEX IF NOT EXISTS idx_testimonials_tags ON testimonials USING GIN (tags);

		-- Idempotency table for storing idempotency keys
		CREATE TABLE IF NOT EXISTS idempotency (
		    key_hash TEXT,                           -- Hash of the idempotency key
		    request_hash TEXT NOT NULL,              -- Hash of the request payload for conflict detection
		    response_body BYTEA NOT NULL,            -- Cached response body
		    response_status INTEGER NOT NULL,        -- HTTP status code
		    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		    PRIMARY KEY (key_hash, request_hash)
		);

		CREATE INDEX IF NOT EXISTS idx_idempotency_expires_at ON idempotency(expires_at);
	`

	_, err := db.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool
func (p *postgres) Close() {
	p.db.Close()
}

// Ping checks database connectivity
func (p *postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// SaveEmbed upserts a configuration. The update only applies when the stored
// row has the same owner; otherwise no row is affected and ErrConflict is returned.
func (p *postgres) SaveEmbed(ctx context.Context, cfg model.EmbedConfiguration) (err error) {
	defer func(start time.Time) { p.metrics.ObserveStorage("save_embed", start, err) }(time.Now())

	filtersJSON, err := json.Marshal(cfg.Filters)
	if err != nil {
		return fmt.Errorf("failed to marshal filters: %w", err)
	}
	styleJSON, err := json.Marshal(cfg.StyleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal style config: %w", err)
	}

	now := time.Now().UTC()
	createdAt, updatedAt := cfg.CreatedAt, cfg.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	query := `INSERT INTO embeds (id, owner_id, name, embed_type, filters, style_config, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          ON CONFLICT (id) DO UPDATE
	          SET name = EXCLUDED.name, embed_type = EXCLUDED.embed_type, filters = EXCLUDED.filters,
	              style_config = EXCLUDED.style_config, is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at
	          WHERE embeds.owner_id = EXCLUDED.owner_id`

	result, err := p.db.Exec(ctx, query,
		cfg.ID,
		cfg.OwnerID,
		cfg.Name,
		string(cfg.EmbedType),
		filtersJSON,
		styleJSON,
		cfg.IsActive,
		createdAt,
		updatedAt)
	if err != nil {
		return fmt.Errorf("failed to save embed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

const embedColumns = `id, owner_id, name, embed_type, filters, style_config, is_active, created_at, updated_at`

func scanEmbed(row pgx.Row) (*model.EmbedConfiguration, error) {
	var cfg model.EmbedConfiguration
	var embedType string
	var filtersJSON, styleJSON []byte

	err := row.Scan(
		&cfg.ID,
		&cfg.OwnerID,
		&cfg.Name,
		&embedType,
		&filtersJSON,
		&styleJSON,
		&cfg.IsActive,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cfg.EmbedType = model.EmbedType(embedType)

	if err := json.Unmarshal(filtersJSON, &cfg.Filters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filters: %w", err)
	}
	if err := json.Unmarshal(styleJSON, &cfg.StyleConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal style config: %w", err)
	}
	return &cfg, nil
}

// GetEmbed retrieves a configuration by id
func (p *postgres) GetEmbed(ctx context.Context, id string) (cfg *model.EmbedConfiguration, err error) {
	defer func(start time.Time) { p.metrics.ObserveStorage("get_embed", start, ignoreNotFound(err)) }(time.Now())

	cfg, err = scanEmbed(p.db.QueryRow(ctx, `SELECT `+embedColumns+` FROM embeds WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get embed: %w", err)
	}
	return cfg, nil
}

// ListEmbeds lists an owner's configurations, most recently updated first
func (p *postgres) ListEmbeds(ctx context.Context, ownerID string) (out []model.EmbedConfiguration, err error) {
	defer func(start time.Time) { p.metrics.ObserveStorage("list_embeds", start, err) }(time.Now())

	rows, err := p.db.Query(ctx, `SELECT `+embedColumns+` FROM embeds WHERE owner_id = $1 ORDER BY updated_at DESC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeds: %w", err)
	}
	defer rows.Close()

	out = make([]model.EmbedConfiguration, 0)
	for rows.Next() {
		cfg, err := scanEmbed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embed: %w", err)
		}
		out = append(out, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embeds: %w", err)
	}
	return out, nil
}

// CreateTestimonial creates a new testimonial in the database
func (p *postgres) CreateTestimonial(ctx context.Context, t model.Testimonial) (err error) {
	defer func(start time.Time) { p.metrics.ObserveStorage("create_testimonial", start, err) }(time.Now())

	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `INSERT INTO testimonials (id, owner_id, form_id, status, message, rating, author_name, author_company,
	                                    avatar_url, image_url, video_url, tags, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = p.db.Exec(ctx, query,
		t.ID,
		t.OwnerID,
		t.FormID,
		t.Status,
		t.Message,
		t.Rating,
		t.AuthorName,
		t.AuthorCompany,
		t.AvatarURL,
		t.ImageURL,
		t.VideoURL,
		tags,
		t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("failed to create testimonial: %w", err)
	}
	return nil
}

// testimonialQuery builds the filtered listing query for one owner.
func testimonialQuery(ownerID string, filter model.FilterModel) (string, []interface{}) {
	status := filter.Status
	if status == "" {
		status = model.StatusApproved
	}

	var b strings.Builder
	b.WriteString(`SELECT id, owner_id, form_id, status, message, rating, author_name, author_company,
	                      avatar_url, image_url, video_url, tags, created_at
	               FROM testimonials WHERE owner_id = $1 AND status = $2`)
	args := []interface{}{ownerID, status}
	argIndex := 3

	if filter.MinRating != nil {
		fmt.Fprintf(&b, " AND rating >= $%d", argIndex)
		args = append(args, *filter.MinRating)
		argIndex++
	}
	if len(filter.FormIDs) > 0 {
		fmt.Fprintf(&b, " AND form_id = ANY($%d)", argIndex)
		args = append(args, filter.FormIDs)
		argIndex++
	}
	if len(filter.Tags) > 0 {
		fmt.Fprintf(&b, " AND tags && $%d", argIndex)
		args = append(args, filter.Tags)
		argIndex++
	}

	b.WriteString(" ORDER BY created_at DESC, id ASC")
	if limit := filter.LimitValue(); limit > 0 {
		fmt.Fprintf(&b, " LIMIT $%d", argIndex)
		args = append(args, limit)
	}
	return b.String(), args
}

// ListTestimonials lists an owner's testimonials matching filter
func (p *postgres) ListTestimonials(ctx context.Context, ownerID string, filter model.FilterModel) (out []model.Testimonial, err error) {
	defer func(start time.Time) { p.metrics.ObserveStorage("list_testimonials", start, err) }(time.Now())

	query, args := testimonialQuery(ownerID, filter)
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	defer rows.Close()

	out = make([]model.Testimonial, 0)
	for rows.Next() {
		var t model.Testimonial
		err := rows.Scan(
			&t.ID,
			&t.OwnerID,
			&t.FormID,
			&t.Status,
			&t.Message,
			&t.Rating,
			&t.AuthorName,
			&t.AuthorCompany,
			&t.AvatarURL,
			&t.ImageURL,
			&t.VideoURL,
			&t.Tags,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan testimonial: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating testimonials: %w", err)
	}
	return out, nil
}

// StoreIdempotentResponse stores an idempotent response in the database
func (p *postgres) StoreIdempotentResponse(ctx context.Context, keyHash, requestHash string, responseBody []byte, statusCode int, expiresAt time.Time) error {
	// A live entry with the same key but another request is a conflict
	var existingRequestHash string
	query := `SELECT request_hash FROM idempotency WHERE key_hash = $1 AND request_hash != $2 AND expires_at > $3 LIMIT 1`

	err := p.db.QueryRow(ctx, query, keyHash, requestHash, time.Now().UTC()).Scan(&existingRequestHash)
	if err == nil {
		return ErrConflict
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to check for idempotency conflicts: %w", err)
	}

	query = `INSERT INTO idempotency (key_hash, request_hash, response_body, response_status, created_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (key_hash, request_hash) DO UPDATE
	          SET response_body = $3, response_status = $4, created_at = $5, expires_at = $6`

	_, err = p.db.Exec(ctx, query, keyHash, requestHash, responseBody, statusCode, time.Now().UTC(), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

// GetIdempotentResponse retrieves the most recent live response for keyHash
func (p *postgres) GetIdempotentResponse(ctx context.Context, keyHash string) (*IdempotentResponse, error) {
	query := `SELECT request_hash, response_body, response_status, expires_at FROM idempotency
	          WHERE key_hash = $1 AND expires_at > $2 ORDER BY created_at DESC LIMIT 1`

	var resp IdempotentResponse
	err := p.db.QueryRow(ctx, query, keyHash, time.Now().UTC()).Scan(&resp.RequestHash, &resp.ResponseBody, &resp.StatusCode, &resp.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get idempotent response: %w", err)
	}
	return &resp, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

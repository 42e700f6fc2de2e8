// Package config provides configuration loading for the embed service.
// It handles environment variable parsing and provides default values for all settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package initialization.
// godotenv.Load does not override variables that are already set, so the
// process environment always wins over .env files.
func init() {
	// Load .env file if it exists (shared development config)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	// Load .env.local if it exists (local overrides, gitignored)
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the embed service.
type Config struct {
	Env         string // Deployment environment (dev, staging, prod)
	Port        string // HTTP server port
	DatabaseDSN string // PostgreSQL connection string; empty selects the in-memory store
	NATSURL     string // NATS server URL; empty disables event publishing
	S3Endpoint  string // S3-compatible storage endpoint
	S3Region    string // S3 region
	S3Bucket    string // S3 bucket holding testimonial media
	S3AccessKey string // S3 access key
	S3SecretKey string // S3 secret key
	JWTIssuer   string // Expected issuer for JWT validation
	JWTAudience string // Expected audience for JWT validation

	// Media
	MediaURLTTL      time.Duration // Lifetime of presigned media URLs
	MaxMediaSize     int64         // Maximum upload size in bytes (default 50MB)
	AllowedMimeTypes []string      // Allowed MIME types for media uploads

	// Embeds
	DistributionURL string        // Public host referenced by embed snippets
	DefaultLimit    int           // Filter limit when a configuration sets none
	MaxLimit        int           // Upper bound for any filter limit
	ConfigCacheSize int           // Entries of the embed configuration cache; 0 disables it
	ConfigCacheTTL  time.Duration // Longest time a cached configuration is served

	// CORS configuration
	CORSAllowedOrigins []string // Allowed origins for CORS (empty means deny all)
}

// Default configuration values used when environment variables are not set
const (
	defaultEnv             = "dev"
	defaultPort            = "8080"
	defaultS3Region        = "us-east-1"
	defaultMediaURLTTL     = time.Hour
	defaultMaxMediaSize    = 50 * 1024 * 1024
	defaultDistributionURL = "https://embed.proofwall.io"
	defaultLimit           = 50
	defaultMaxLimit        = 100
	defaultConfigCacheSize = 256
	defaultConfigCacheTTL  = 30 * time.Second
)

var defaultMimeTypes = []string{"image/jpeg", "image/png", "image/webp", "video/mp4", "video/webm"}

// Load reads environment variables and produces a Config suitable for wiring the service.
// Returns an error if required parameters are missing or invalid.
func Load() (Config, error) {
	cfg := Config{
		Env:             getEnv("EMBED_ENV", defaultEnv),
		Port:            getEnv("EMBED_PORT", defaultPort),
		DatabaseDSN:     os.Getenv("EMBED_DB_DSN"),
		NATSURL:         os.Getenv("EMBED_NATS_URL"),
		S3Endpoint:      os.Getenv("EMBED_S3_ENDPOINT"),
		S3Region:        getEnv("EMBED_S3_REGION", defaultS3Region),
		S3Bucket:        os.Getenv("EMBED_S3_BUCKET"),
		S3AccessKey:     os.Getenv("EMBED_S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("EMBED_S3_SECRET_KEY"),
		JWTIssuer:       os.Getenv("EMBED_JWT_ISSUER"),
		JWTAudience:     os.Getenv("EMBED_JWT_AUDIENCE"),
		DistributionURL: strings.TrimRight(getEnv("EMBED_DISTRIBUTION_URL", defaultDistributionURL), "/"),
	}

	var err error
	if cfg.MediaURLTTL, err = getDuration("EMBED_MEDIA_URL_TTL", defaultMediaURLTTL); err != nil {
		return cfg, err
	}
	if cfg.DefaultLimit, err = getInt("EMBED_DEFAULT_LIMIT", defaultLimit); err != nil {
		return cfg, err
	}
	if cfg.MaxLimit, err = getInt("EMBED_MAX_LIMIT", defaultMaxLimit); err != nil {
		return cfg, err
	}
	if cfg.ConfigCacheSize, err = getInt("EMBED_CONFIG_CACHE_SIZE", defaultConfigCacheSize); err != nil {
		return cfg, err
	}
	if cfg.ConfigCacheTTL, err = getDuration("EMBED_CONFIG_CACHE_TTL", defaultConfigCacheTTL); err != nil {
		return cfg, err
	}

	cfg.MaxMediaSize = defaultMaxMediaSize
	if v := os.Getenv("EMBED_MAX_MEDIA_SIZE"); v != "" {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil || size <= 0 {
			return cfg, fmt.Errorf("EMBED_MAX_MEDIA_SIZE must be a positive integer, got %q", v)
		}
		cfg.MaxMediaSize = size
	}

	cfg.AllowedMimeTypes = append([]string(nil), defaultMimeTypes...)
	if types := splitList(os.Getenv("EMBED_ALLOWED_MIME_TYPES")); len(types) > 0 {
		cfg.AllowedMimeTypes = types
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("EMBED_CORS_ALLOWED_ORIGINS"))

	// Validate required parameters
	if cfg.JWTIssuer == "" {
		return cfg, fmt.Errorf("EMBED_JWT_ISSUER is required")
	}
	if cfg.JWTAudience == "" {
		return cfg, fmt.Errorf("EMBED_JWT_AUDIENCE is required")
	}
	if cfg.DefaultLimit < 1 || cfg.MaxLimit < cfg.DefaultLimit {
		return cfg, fmt.Errorf("EMBED_DEFAULT_LIMIT (%d) must be between 1 and EMBED_MAX_LIMIT (%d)", cfg.DefaultLimit, cfg.MaxLimit)
	}

	return cfg, nil
}

// IsDev reports whether the service runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// getEnv retrieves an environment variable value, returning a fallback if not set or empty
func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

// splitList splits a comma separated value, trimming whitespace and dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

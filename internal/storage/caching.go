package storage

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/proofwall/proofwall-embed-go/internal/metrics"
	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// DefaultCacheTTL bounds how long a configuration saved through another
// replica can be served stale.
const DefaultCacheTTL = 30 * time.Second

// caching is a read-through cache of embed configurations in front of a Store.
// The public render endpoint looks up the same configuration on every page view.
type caching struct {
	Store
	embeds  *expirable.LRU[string, model.EmbedConfiguration]
	metrics *metrics.Metrics

	// generation changes around every save; a miss only fills the cache when
	// no save started or finished while it was reading.
	mu         sync.Mutex
	generation uint64
}

// NewCaching wraps store with an LRU cache of size configurations, each kept
// for at most ttl. A non-positive size returns store unchanged; a
// non-positive ttl uses DefaultCacheTTL.
func NewCaching(store Store, size int, ttl time.Duration) Store {
	if size <= 0 {
		return store
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &caching{
		Store:   store,
		embeds:  expirable.NewLRU[string, model.EmbedConfiguration](size, nil, ttl),
		metrics: metrics.NewMetrics(),
	}
}

func (c *caching) GetEmbed(ctx context.Context, id string) (*model.EmbedConfiguration, error) {
	if cfg, ok := c.embeds.Get(id); ok {
		c.metrics.ConfigCacheTotal.WithLabelValues("hit").Inc()
		out := cloneEmbed(cfg)
		return &out, nil
	}
	c.metrics.ConfigCacheTotal.WithLabelValues("miss").Inc()

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	cfg, err := c.Store.GetEmbed(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.embeds.Add(id, cloneEmbed(*cfg))
	}
	c.mu.Unlock()
	return cfg, nil
}

func (c *caching) SaveEmbed(ctx context.Context, cfg model.EmbedConfiguration) error {
	c.invalidate(cfg.ID)
	err := c.Store.SaveEmbed(ctx, cfg)
	c.invalidate(cfg.ID)
	return err
}

func (c *caching) invalidate(id string) {
	c.mu.Lock()
	c.generation++
	c.embeds.Remove(id)
	c.mu.Unlock()
}

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsIsSingleton(t *testing.T) {
	assert.Same(t, NewMetrics(), NewMetrics())
}

func TestObserveHelpers(t *testing.T) {
	m := NewMetrics()

	before := testutil.ToFloat64(m.StorageOperationTotal.WithLabelValues("get_embed_test", "error"))
	m.ObserveStorage("get_embed_test", time.Now(), errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(m.StorageOperationTotal.WithLabelValues("get_embed_test", "error")))

	before = testutil.ToFloat64(m.RenderTotal.WithLabelValues("grid", "grid/social_star"))
	m.ObserveRender("grid", "grid/social_star", 3, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(m.RenderTotal.WithLabelValues("grid", "grid/social_star")))
}

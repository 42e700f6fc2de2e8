package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofwall/proofwall-embed-go/internal/metrics"
	"github.com/proofwall/proofwall-embed-go/internal/model"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, tm := range []model.Testimonial{
		{ID: "t1", OwnerID: "o1", Status: model.StatusApproved, AuthorName: "Ann", Rating: model.IntPtr(5), FormID: "f1", Tags: []string{"pricing"}, CreatedAt: base},
		{ID: "t2", OwnerID: "o1", Status: model.StatusApproved, AuthorName: "Bob", Rating: model.IntPtr(3), FormID: "f2", CreatedAt: base.Add(time.Hour)},
		{ID: "t3", OwnerID: "o1", Status: "pending", AuthorName: "Cid", Rating: model.IntPtr(5), CreatedAt: base.Add(2 * time.Hour)},
		{ID: "t4", OwnerID: "o1", Status: model.StatusApproved, AuthorName: "Dee", FormID: "f1", Tags: []string{"support"}, CreatedAt: base.Add(time.Hour)},
		{ID: "t5", OwnerID: "o2", Status: model.StatusApproved, AuthorName: "Eve", Rating: model.IntPtr(4), CreatedAt: base},
	} {
		require.NoError(t, s.CreateTestimonial(ctx, tm))
	}
}

func ids(ts []model.Testimonial) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func TestMemoryListTestimonials(t *testing.T) {
	s := NewMemory()
	seed(t, s)

	tests := []struct {
		name   string
		owner  string
		filter model.FilterModel
		want   []string
	}{
		{"approved only, newest first, ties by id", "o1", model.FilterModel{}, []string{"t2", "t4", "t1"}},
		{"min rating excludes unrated", "o1", model.FilterModel{MinRating: model.IntPtr(4)}, []string{"t1"}},
		{"form ids", "o1", model.FilterModel{FormIDs: []string{"f1"}}, []string{"t4", "t1"}},
		{"tag overlap", "o1", model.FilterModel{Tags: []string{"support", "other"}}, []string{"t4"}},
		{"limit", "o1", model.FilterModel{Limit: model.IntPtr(2)}, []string{"t2", "t4"}},
		{"other owner", "o2", model.FilterModel{}, []string{"t5"}},
		{"unknown owner", "nobody", model.FilterModel{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTestimonials(context.Background(), tt.owner, tt.filter)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("ListTestimonials() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMemoryCreateTestimonialConflict(t *testing.T) {
	s := NewMemory()
	seed(t, s)
	err := s.CreateTestimonial(context.Background(), model.Testimonial{ID: "t1", OwnerID: "o1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryListTestimonialsReturnsCopies(t *testing.T) {
	s := NewMemory()
	seed(t, s)
	ctx := context.Background()

	got, err := s.ListTestimonials(ctx, "o1", model.FilterModel{Tags: []string{"pricing"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	got[0].Tags[0] = "mutated"

	again, err := s.ListTestimonials(ctx, "o1", model.FilterModel{Tags: []string{"pricing"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"pricing"}, again[0].Tags)
}

func TestMemorySaveEmbed(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	cfg := model.EmbedConfiguration{ID: "e1", OwnerID: "o1", Name: "Wall", EmbedType: model.EmbedGrid, IsActive: true, UpdatedAt: base}
	require.NoError(t, s.SaveEmbed(ctx, cfg))

	got, err := s.GetEmbed(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Wall", got.Name)
	assert.False(t, got.CreatedAt.IsZero())
	created := got.CreatedAt

	cfg.Name = "Renamed"
	cfg.UpdatedAt = base.Add(time.Hour)
	cfg.CreatedAt = time.Time{}
	require.NoError(t, s.SaveEmbed(ctx, cfg))
	got, err = s.GetEmbed(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, created, got.CreatedAt, "update keeps the creation time")

	stolen := cfg
	stolen.OwnerID = "o2"
	assert.ErrorIs(t, s.SaveEmbed(ctx, stolen), ErrConflict)

	_, err = s.GetEmbed(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListEmbeds(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.SaveEmbed(ctx, model.EmbedConfiguration{ID: id, OwnerID: "o1", EmbedType: model.EmbedGrid, UpdatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, s.SaveEmbed(ctx, model.EmbedConfiguration{ID: "x", OwnerID: "o2", EmbedType: model.EmbedGrid}))

	got, err := s.ListEmbeds(ctx, "o1")
	require.NoError(t, err)
	var gotIDs []string
	for _, c := range got {
		gotIDs = append(gotIDs, c.ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, gotIDs)

	none, err := s.ListEmbeds(ctx, "o3")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryIdempotency(t *testing.T) {
	s := NewMemory().(*memory)
	now := base
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := s.GetIdempotentResponse(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.StoreIdempotentResponse(ctx, "k", "r1", []byte(`{"data":1}`), 200, now.Add(time.Hour)))
	got, err := s.GetIdempotentResponse(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RequestHash)
	assert.Equal(t, 200, got.StatusCode)
	assert.JSONEq(t, `{"data":1}`, string(got.ResponseBody))

	assert.ErrorIs(t, s.StoreIdempotentResponse(ctx, "k", "r2", nil, 200, now.Add(time.Hour)), ErrConflict)
	assert.NoError(t, s.StoreIdempotentResponse(ctx, "k", "r1", []byte(`{}`), 201, now.Add(time.Hour)), "same request may overwrite")

	now = now.Add(2 * time.Hour)
	_, err = s.GetIdempotentResponse(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound, "expired")
	assert.NoError(t, s.StoreIdempotentResponse(ctx, "k", "r2", nil, 200, now.Add(time.Hour)), "expired key is reusable")
}

func TestCachingServesRepeatReads(t *testing.T) {
	inner := NewMemory()
	s := NewCaching(inner, 8, time.Minute)
	ctx := context.Background()
	m := metrics.NewMetrics()
	hits := m.ConfigCacheTotal.WithLabelValues("hit")
	misses := m.ConfigCacheTotal.WithLabelValues("miss")
	hits0, misses0 := testutil.ToFloat64(hits), testutil.ToFloat64(misses)

	require.NoError(t, s.SaveEmbed(ctx, model.EmbedConfiguration{ID: "e1", OwnerID: "o1", Name: "v1", EmbedType: model.EmbedGrid}))

	for i := 0; i < 3; i++ {
		got, err := s.GetEmbed(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, "v1", got.Name)
	}
	assert.Equal(t, misses0+1, testutil.ToFloat64(misses))
	assert.Equal(t, hits0+2, testutil.ToFloat64(hits))

	require.NoError(t, s.SaveEmbed(ctx, model.EmbedConfiguration{ID: "e1", OwnerID: "o1", Name: "v2", EmbedType: model.EmbedGrid}))
	got, err := s.GetEmbed(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Name, "save invalidates")

	_, err = s.GetEmbed(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachingDisabled(t *testing.T) {
	inner := NewMemory()
	assert.Same(t, inner, NewCaching(inner, 0, time.Minute))
}

// gatedStore pauses the first GetEmbed after it has read from the inner
// store, so a save can land between the read and the cache fill.
type gatedStore struct {
	Store
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (g *gatedStore) GetEmbed(ctx context.Context, id string) (*model.EmbedConfiguration, error) {
	cfg, err := g.Store.GetEmbed(ctx, id)
	g.once.Do(func() {
		close(g.read)
		<-g.release
	})
	return cfg, err
}

func TestCachingDropsFillRacingASave(t *testing.T) {
	ctx := context.Background()
	inner := &gatedStore{Store: NewMemory(), read: make(chan struct{}), release: make(chan struct{})}
	s := NewCaching(inner, 8, time.Minute)

	require.NoError(t, inner.Store.SaveEmbed(ctx, model.EmbedConfiguration{ID: "e1", OwnerID: "o1", Name: "v1", EmbedType: model.EmbedGrid, IsActive: true}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		got, err := s.GetEmbed(ctx, "e1")
		assert.NoError(t, err)
		assert.Equal(t, "v1", got.Name)
	}()

	<-inner.read
	require.NoError(t, s.SaveEmbed(ctx, model.EmbedConfiguration{ID: "e1", OwnerID: "o1", Name: "v2", EmbedType: model.EmbedGrid, IsActive: false}))
	close(inner.release)
	<-done

	got, err := s.GetEmbed(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Name)
	assert.False(t, got.IsActive)
}

func TestCachingExpiresEntriesSavedElsewhere(t *testing.T) {
	ctx := context.Background()
	shared := NewMemory()
	a := NewCaching(shared, 8, time.Minute)
	b := NewCaching(shared, 8, 50*time.Millisecond)

	require.NoError(t, a.SaveEmbed(ctx, model.EmbedConfiguration{ID: "e1", OwnerID: "o1", Name: "v1", EmbedType: model.EmbedGrid, IsActive: true}))
	got, err := b.GetEmbed(ctx, "e1")
	require.NoError(t, err)
	require.True(t, got.IsActive)

	require.NoError(t, a.SaveEmbed(ctx, model.EmbedConfiguration{ID: "e1", OwnerID: "o1", Name: "v2", EmbedType: model.EmbedGrid, IsActive: false}))

	require.Eventually(t, func() bool {
		got, err := b.GetEmbed(ctx, "e1")
		return err == nil && got.Name == "v2" && !got.IsActive
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTestimonialQuery(t *testing.T) {
	query, args := testimonialQuery("o1", model.FilterModel{
		MinRating: model.IntPtr(4),
		FormIDs:   []string{"f1"},
		Tags:      []string{"a", "b"},
		Limit:     model.IntPtr(10),
	})
	assert.Contains(t, query, "status = $2")
	assert.Contains(t, query, "rating >= $3")
	assert.Contains(t, query, "form_id = ANY($4)")
	assert.Contains(t, query, "tags && $5")
	assert.Contains(t, query, "ORDER BY created_at DESC, id ASC LIMIT $6")
	assert.Equal(t, []interface{}{"o1", model.StatusApproved, 4, []string{"f1"}, []string{"a", "b"}, 10}, args)

	query, args = testimonialQuery("o1", model.FilterModel{})
	assert.NotContains(t, query, "LIMIT")
	assert.Len(t, args, 2)
}

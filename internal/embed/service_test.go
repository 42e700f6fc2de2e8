package embed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofwall/proofwall-embed-go/internal/event"
	"github.com/proofwall/proofwall-embed-go/internal/metrics"
	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/render"
	"github.com/proofwall/proofwall-embed-go/internal/viability"
)

type fakeProvider struct {
	records []model.Testimonial
	err     error

	gotOwner  string
	gotFilter model.FilterModel
}

func (f *fakeProvider) ListTestimonials(ctx context.Context, ownerID string, filter model.FilterModel) ([]model.Testimonial, error) {
	f.gotOwner = ownerID
	f.gotFilter = filter
	return f.records, f.err
}

type prefixResolver struct{}

func (prefixResolver) ResolveURL(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "s3://broken/") {
		return "", errors.New("unreachable")
	}
	if strings.HasPrefix(ref, "s3://") {
		return "https://signed.example/" + strings.TrimPrefix(ref, "s3://"), nil
	}
	return ref, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	rendered []event.Rendered
	err      error
}

func (p *recordingPublisher) PublishEmbedSaved(ctx context.Context, cfg model.EmbedConfiguration, correlationID string) error {
	return nil
}

func (p *recordingPublisher) PublishEmbedRendered(ctx context.Context, r event.Rendered, correlationID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rendered = append(p.rendered, r)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func records() []model.Testimonial {
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return []model.Testimonial{
		{ID: "r1", AuthorName: "Ann", Message: "Great", Rating: model.IntPtr(5), AvatarURL: "s3://media/a.png", VideoURL: "s3://media/v.mp4", Status: model.StatusApproved, CreatedAt: at},
		{ID: "r2", AuthorName: "Bob", Message: "Fine", Rating: model.IntPtr(4), AvatarURL: "s3://broken/b.png", Status: model.StatusApproved, CreatedAt: at},
	}
}

func gridConfig() model.EmbedConfiguration {
	return model.EmbedConfiguration{ID: "e1", OwnerID: "o1", Name: "Wall", EmbedType: model.EmbedGrid, IsActive: true}
}

func TestRenderNormalizesFilter(t *testing.T) {
	provider := &fakeProvider{records: records()}
	svc := NewService(Options{Provider: provider, DefaultLimit: 20, MaxLimit: 50})

	cfg := gridConfig()
	cfg.Filters = model.FilterModel{MinRating: model.IntPtr(4), Limit: model.IntPtr(500), Status: ""}
	_, err := svc.Render(context.Background(), cfg, "cid")
	require.NoError(t, err)

	assert.Equal(t, "o1", provider.gotOwner)
	assert.Equal(t, model.StatusApproved, provider.gotFilter.Status)
	assert.Equal(t, 50, provider.gotFilter.LimitValue())
	assert.Equal(t, 4, *provider.gotFilter.MinRating)

	cfg.Filters = model.FilterModel{}
	_, err = svc.Render(context.Background(), cfg, "cid")
	require.NoError(t, err)
	assert.Equal(t, 20, provider.gotFilter.LimitValue())
}

func TestRenderProducesPresentationAndWarnings(t *testing.T) {
	svc := NewService(Options{Provider: &fakeProvider{records: records()[:1]}})

	cfg := gridConfig()
	cfg.EmbedType = model.EmbedVideoWall
	res, err := svc.Render(context.Background(), cfg, "cid")
	require.NoError(t, err)

	assert.Equal(t, model.EmbedVideoWall, res.Presentation.EmbedType)
	assert.Equal(t, []string{"r1"}, res.Presentation.RecordIDs())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, viability.CodeFewVideos, res.Warnings[0].Code)
}

func TestRenderEmptyRecords(t *testing.T) {
	svc := NewService(Options{Provider: &fakeProvider{}})

	res, err := svc.Render(context.Background(), gridConfig(), "cid")
	require.NoError(t, err)
	assert.Equal(t, render.KindEmpty, res.Presentation.Root.Kind)
	assert.True(t, viability.HasHard(res.Warnings))
}

func TestRenderProviderFailure(t *testing.T) {
	svc := NewService(Options{Provider: &fakeProvider{err: errors.New("db down")}})
	_, err := svc.Render(context.Background(), gridConfig(), "cid")
	assert.ErrorContains(t, err, "db down")
}

func TestRenderWithoutProvider(t *testing.T) {
	svc := NewService(Options{})
	_, err := svc.Render(context.Background(), gridConfig(), "cid")
	assert.Error(t, err)
}

func TestRenderResolvesMediaIntoCopies(t *testing.T) {
	in := records()
	svc := NewService(Options{Provider: &fakeProvider{records: in}, Resolver: prefixResolver{}})

	res, err := svc.Render(context.Background(), gridConfig(), "cid")
	require.NoError(t, err)

	var avatars []string
	for _, b := range res.Presentation.Find("avatar") {
		if b.Media != nil {
			avatars = append(avatars, b.Media.URL)
		}
	}
	assert.Contains(t, avatars, "https://signed.example/media/a.png")
	assert.Contains(t, avatars, "s3://broken/b.png", "unresolvable references keep their value")

	assert.Equal(t, "s3://media/a.png", in[0].AvatarURL, "input records are not modified")
	assert.Equal(t, "s3://media/v.mp4", in[0].VideoURL)
}

func TestRenderPublishesRenderedEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(Options{Provider: &fakeProvider{records: records()}, Publisher: pub})

	_, err := svc.Render(context.Background(), gridConfig(), "cid")
	require.NoError(t, err)
	require.Len(t, pub.rendered, 1)
	got := pub.rendered[0]
	assert.Equal(t, "e1", got.EmbedID)
	assert.Equal(t, "o1", got.OwnerID)
	assert.Equal(t, "grid", got.Strategy)
	assert.Equal(t, 2, got.Records)

	draft := gridConfig()
	draft.ID = ""
	_, err = svc.Render(context.Background(), draft, "cid")
	require.NoError(t, err)
	assert.Len(t, pub.rendered, 1, "drafts are not announced")
}

func TestRenderIgnoresPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	svc := NewService(Options{Provider: &fakeProvider{records: records()}, Publisher: pub})

	res, err := svc.Render(context.Background(), gridConfig(), "cid")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, res.Presentation.RecordIDs())
}

func TestPreviewDoesNotUseProvider(t *testing.T) {
	provider := &fakeProvider{err: errors.New("must not be called")}
	svc := NewService(Options{Provider: provider})

	cfg := gridConfig()
	cfg.ID = ""
	cfg.EmbedType = model.EmbedCarousel
	cfg.StyleConfig.LayoutPreset = model.PresetCandyCarousel
	res := svc.Preview(context.Background(), cfg, records())

	assert.Equal(t, render.StrategyID("carousel/candy_carousel"), res.Presentation.Strategy)
	assert.Empty(t, provider.gotOwner)
	assert.NotNil(t, res.Warnings)
}

func TestRenderRecordsMetrics(t *testing.T) {
	m := metrics.NewMetrics()
	counter := m.ViabilityWarningsTotal.WithLabelValues("video_wall", "no_video", "hard")
	before := testutil.ToFloat64(counter)

	svc := NewService(Options{Provider: &fakeProvider{records: records()[1:]}})
	cfg := gridConfig()
	cfg.EmbedType = model.EmbedVideoWall
	_, err := svc.Render(context.Background(), cfg, "cid")
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

package viability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofwall/proofwall-embed-go/internal/model"
)

func records(n, videos int) []model.Testimonial {
	out := make([]model.Testimonial, n)
	for i := range out {
		out[i].ID = string(rune('a' + i))
		if i < videos {
			out[i].VideoURL = "https://cdn.example/" + out[i].ID + ".mp4"
		}
	}
	return out
}

func style(t model.EmbedType, preset model.Preset) model.Style {
	return model.ResolveStyle(t, model.StyleConfig{LayoutPreset: preset})
}

func TestNoRecords(t *testing.T) {
	for _, et := range []model.EmbedType{model.EmbedGrid, model.Embed3DCarousel} {
		ws := Check(et, style(et, model.PresetNone), nil)
		require.Len(t, ws, 1)
		assert.Equal(t, CodeNoTestimonials, ws[0].Code)
	}
}

func TestVideoWall(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		videos   int
		wantCode []Code
		wantSev  Severity
	}{
		{"no videos among five", 5, 0, []Code{CodeNoVideo}, SeverityHard},
		{"one video", 5, 1, []Code{CodeFewVideos}, SeveritySoft},
		{"two videos", 5, 2, []Code{CodeFewVideos}, SeveritySoft},
		{"three videos", 5, 3, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := Check(model.EmbedVideoWall, style(model.EmbedVideoWall, ""), records(tt.total, tt.videos))

			var codes []Code
			for _, w := range ws {
				codes = append(codes, w.Code)
				assert.Equal(t, tt.wantSev, w.Severity)
			}
			assert.Equal(t, tt.wantCode, codes)
		})
	}
}

func TestFewVideosMessage(t *testing.T) {
	ws := Check(model.EmbedVideoWall, style(model.EmbedVideoWall, ""), records(5, 2))
	require.Len(t, ws, 1)
	assert.Contains(t, ws[0].Message, "at least 3")
	assert.Contains(t, ws[0].Message, "currently 2")
}

func TestRulesAreNotShortCircuited(t *testing.T) {
	ws := Check(model.EmbedVideoWall, style(model.EmbedVideoWall, ""), nil)
	require.Len(t, ws, 2)
	assert.Equal(t, CodeNoTestimonials, ws[0].Code)
	assert.Equal(t, CodeNoVideo, ws[1].Code)
	assert.True(t, HasHard(ws))
}

func TestNoRatings(t *testing.T) {
	unrated := records(2, 0)
	for _, et := range []model.EmbedType{model.EmbedRatingSummary, model.EmbedRatingBadgeInline, model.EmbedRatingBadgeFloating} {
		ws := Check(et, style(et, ""), unrated)
		require.Len(t, ws, 1, et)
		assert.Equal(t, CodeNoRatings, ws[0].Code)
	}

	rated := records(2, 0)
	rated[1].Rating = model.IntPtr(4)
	assert.Empty(t, Check(model.EmbedRatingSummary, style(model.EmbedRatingSummary, ""), rated))
	assert.Empty(t, Check(model.EmbedGrid, style(model.EmbedGrid, ""), unrated))
}

func TestPresetNeedsVideo(t *testing.T) {
	ws := Check(model.EmbedCarousel, style(model.EmbedCarousel, model.PresetLoppaCarousel), records(3, 0))
	require.Len(t, ws, 1)
	assert.Equal(t, CodePresetNeedsVideo, ws[0].Code)
	assert.Contains(t, ws[0].Message, "Loppa Carousel")

	ws = Check(model.EmbedSingle, style(model.EmbedSingle, model.PresetSingleVideo), records(3, 0))
	require.Len(t, ws, 1)
	assert.Contains(t, ws[0].Message, "Single Video")

	assert.Empty(t, Check(model.EmbedSingle, style(model.EmbedSingle, model.PresetSingleVideo), records(3, 1)))
}

func TestInvalidPresetIsIgnored(t *testing.T) {
	// single_video is not a grid preset, so it asks for nothing.
	assert.Empty(t, Check(model.EmbedGrid, style(model.EmbedGrid, model.PresetSingleVideo), records(3, 0)))
}

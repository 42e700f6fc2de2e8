package render

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofwall/proofwall-embed-go/internal/model"
)

func fixture() []model.Testimonial {
	created := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	return []model.Testimonial{
		{ID: "r1", Message: "Great product. Would buy again!", Rating: model.IntPtr(5), AuthorName: "Ada Lovelace", AuthorCompany: "Analytical", VideoURL: "https://cdn.example/r1.mp4", ImageURL: "https://cdn.example/r1.jpg", CreatedAt: created, Tags: []string{"vip"}},
		{ID: "r2", Message: "Solid.", AuthorName: "grace hopper", AvatarURL: "https://cdn.example/g.png", CreatedAt: created.Add(-time.Hour)},
		{ID: "r3", Message: strings.Repeat("long text ", 30), Rating: model.IntPtr(3), AuthorName: "", VideoURL: "https://cdn.example/r3.mp4"},
	}
}

func configFor(t model.EmbedType, preset model.Preset) model.EmbedConfiguration {
	return model.EmbedConfiguration{
		Name:        "test",
		EmbedType:   t,
		StyleConfig: model.StyleConfig{LayoutPreset: preset},
		IsActive:    true,
	}
}

func TestRenderEveryTypeNeverMutatesInput(t *testing.T) {
	for _, et := range model.EmbedTypes {
		presets := append([]model.Preset{model.PresetNone}, model.PresetsFor(et)...)
		for _, p := range presets {
			for _, records := range [][]model.Testimonial{nil, {}, fixture()[:1], fixture()} {
				in := records
				var before []model.Testimonial
				if in != nil {
					before = append([]model.Testimonial{}, fixture()[:len(in)]...)
				}

				out := Render(configFor(et, p), in)

				assert.NotEmpty(t, out.Root.Kind, "%s/%s", et, p)
				assert.Equal(t, et, out.EmbedType)
				if diff := cmp.Diff(before, in); diff != "" && in != nil {
					t.Errorf("%s/%s mutated input (-want +got):\n%s", et, p, diff)
				}
			}
		}
	}
}

func TestRegistryCoversCatalogue(t *testing.T) {
	assert.Empty(t, missingStrategies())
	// 21 types plus 7 presets.
	assert.Len(t, Strategies(), 28)
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name      string
		embedType model.EmbedType
		preset    model.Preset
		want      StrategyID
	}{
		{"default grid", model.EmbedGrid, model.PresetNone, "grid"},
		{"grid preset", model.EmbedGrid, model.PresetSocialStar, "grid/social_star"},
		{"invalid preset falls back", model.EmbedGrid, model.PresetSingleVideo, "grid"},
		{"unknown preset falls back", model.EmbedCarousel, model.Preset("sparkle"), "carousel"},
		{"carousel preset", model.EmbedCarousel, model.PresetLoppaCarousel, "carousel/loppa_carousel"},
		{"preset on type without presets", model.EmbedWall, model.PresetCandyCarousel, "wall"},
		{"unknown type", model.EmbedType("hologram"), model.PresetNone, NotImplementedID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(tt.embedType, tt.preset).ID)
		})
	}
}

func TestComingSoonIsConstant(t *testing.T) {
	for _, et := range []model.EmbedType{model.Embed3DCarousel, model.EmbedWidgetPopup} {
		empty := Render(configFor(et, model.PresetNone), nil)
		full := Render(configFor(et, model.PresetNone), fixture())

		if diff := cmp.Diff(empty, full); diff != "" {
			t.Errorf("%s output depends on records (-empty +full):\n%s", et, diff)
		}
		assert.Equal(t, KindPlaceholder, full.Root.Kind)
		assert.Equal(t, "coming_soon", full.Root.Role)
	}
}

func TestUnknownTypeRendersNotImplemented(t *testing.T) {
	out := Render(configFor(model.EmbedType("hologram"), model.PresetNone), fixture())
	assert.Equal(t, KindPlaceholder, out.Root.Kind)
	assert.Equal(t, "not_implemented", out.Root.Role)
	assert.Equal(t, NotImplementedID, out.Strategy)
}

func TestEmptyState(t *testing.T) {
	out := Render(configFor(model.EmbedGrid, model.PresetNone), nil)
	assert.Equal(t, KindEmpty, out.Root.Kind)
	assert.Equal(t, "no_testimonials", out.Root.Role)
}

func TestVideoWallFiltersToVideos(t *testing.T) {
	out := Render(configFor(model.EmbedVideoWall, model.PresetNone), fixture())
	assert.Equal(t, []string{"r1", "r3"}, out.RecordIDs())
	for _, m := range out.Find("media") {
		require.NotNil(t, m.Media)
		assert.Equal(t, "video", m.Media.Type)
	}
}

func TestVideoWallWithoutVideos(t *testing.T) {
	records := []model.Testimonial{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	for _, in := range [][]model.Testimonial{records, nil} {
		out := Render(configFor(model.EmbedVideoWall, model.PresetNone), in)
		assert.Equal(t, KindEmpty, out.Root.Kind)
		assert.Equal(t, "no_video", out.Root.Role)
	}
}

func TestMarqueeLoopsOnce(t *testing.T) {
	records := []model.Testimonial{{ID: "a", AuthorName: "A"}, {ID: "b", AuthorName: "B"}}
	for _, et := range []model.EmbedType{model.EmbedMarqueeHorizontal, model.EmbedMarqueeVertical, model.EmbedTickerBar} {
		out := Render(configFor(et, model.PresetNone), records)
		assert.Equal(t, []string{"a", "b", "a", "b"}, out.RecordIDs(), et)
	}
}

func TestMarqueeMotionAttrs(t *testing.T) {
	cfg := configFor(model.EmbedMarqueeHorizontal, model.PresetNone)
	cfg.StyleConfig.Speed = model.SpeedFast
	cfg.StyleConfig.PauseOnHover = model.BoolPtr(false)

	out := Render(cfg, fixture())
	assert.Equal(t, "fast", out.Root.Attrs["speed"])
	assert.Equal(t, "20", out.Root.Attrs["durationSeconds"])
	assert.Equal(t, "false", out.Root.Attrs["pauseOnHover"])
	assert.Equal(t, "left", out.Root.Attrs["direction"])
}

func TestInvalidPresetMatchesDefault(t *testing.T) {
	withPreset := Render(configFor(model.EmbedGrid, model.PresetSingleVideo), fixture())
	without := Render(configFor(model.EmbedGrid, model.PresetNone), fixture())

	if diff := cmp.Diff(without, withPreset); diff != "" {
		t.Errorf("invalid preset changed output (-default +preset):\n%s", diff)
	}
}

func TestSingleAndHeroRenderFirstRecord(t *testing.T) {
	records := fixture()
	records[0], records[2] = records[2], records[0]
	for _, et := range []model.EmbedType{model.EmbedSingle, model.EmbedFeaturedHero} {
		out := Render(configFor(et, model.PresetNone), records)
		assert.Equal(t, []string{"r3"}, out.RecordIDs(), et)
	}
}

func TestSingleVideoPreset(t *testing.T) {
	records := fixture()[1:] // r2 has no video, r3 has one
	out := Render(configFor(model.EmbedSingle, model.PresetSingleVideo), records)
	assert.Equal(t, []string{"r3"}, out.RecordIDs())

	out = Render(configFor(model.EmbedSingle, model.PresetSingleVideo), records[:1])
	assert.Equal(t, []string{"r2"}, out.RecordIDs())
	assert.Equal(t, "no_video", out.Root.Children[0].Attrs["fallback"])
}

func TestStarSlots(t *testing.T) {
	out := Render(configFor(model.EmbedCompactList, model.PresetNone), fixture())
	ratings := out.Find("rating")
	require.Len(t, ratings, 3)

	filled := func(b Block) int {
		n := 0
		for _, s := range b.Stars {
			if s.Filled {
				n++
				assert.Equal(t, model.DefaultPrimaryColor, s.Color)
			}
		}
		return n
	}
	for _, r := range ratings {
		assert.Len(t, r.Stars, StarSlots)
	}
	assert.Equal(t, []int{5, 0, 3}, []int{filled(ratings[0]), filled(ratings[1]), filled(ratings[2])})
}

func TestShowRatingOff(t *testing.T) {
	cfg := configFor(model.EmbedGrid, model.PresetNone)
	cfg.StyleConfig.ShowRating = model.BoolPtr(false)
	assert.Empty(t, Render(cfg, fixture()).Find("rating"))
}

func TestAvatarFallsBackToInitials(t *testing.T) {
	out := Render(configFor(model.EmbedGrid, model.PresetNone), fixture())
	avatars := out.Find("avatar")
	require.Len(t, avatars, 3)

	assert.Equal(t, "AL", avatars[0].Text)
	assert.Equal(t, "initials", avatars[0].Attrs["fallback"])
	require.NotNil(t, avatars[1].Media)
	assert.Equal(t, "https://cdn.example/g.png", avatars[1].Media.URL)
	assert.Equal(t, "?", avatars[2].Text)
}

func TestAlternationByParity(t *testing.T) {
	for _, et := range []model.EmbedType{model.EmbedTimeline, model.EmbedBubbleStack} {
		out := Render(configFor(et, model.PresetNone), fixture())
		var sides []string
		for _, c := range out.Root.Children {
			sides = append(sides, c.Attrs["side"])
		}
		assert.Equal(t, []string{"left", "right", "left"}, sides, et)
	}
}

func TestFullListStrategiesDoNotTruncate(t *testing.T) {
	for _, et := range []model.EmbedType{model.EmbedCompactList, model.EmbedBubbleStack, model.EmbedTimeline, model.EmbedCardFlip, model.EmbedSocialFeed} {
		out := Render(configFor(et, model.PresetNone), fixture())
		assert.Equal(t, []string{"r1", "r2", "r3"}, out.RecordIDs(), et)
	}
}

func TestCardFlipFaces(t *testing.T) {
	out := Render(configFor(model.EmbedCardFlip, model.PresetNone), fixture())
	card := out.Root.Children[2]
	require.Len(t, card.Children, 2)

	front, back := card.Children[0], card.Children[1]
	assert.Equal(t, "front", front.Role)
	assert.Equal(t, "back", back.Role)

	msg := front.Children[0].Text
	assert.True(t, strings.HasSuffix(msg, "…"))
	assert.LessOrEqual(t, len([]rune(msg)), CardFlipMessageRunes+1)

	var roles []string
	for _, c := range back.Children {
		roles = append(roles, c.Role)
	}
	assert.Equal(t, []string{"avatar", "author"}, roles)
}

func TestRatingSummaryHistogram(t *testing.T) {
	out := Render(configFor(model.EmbedRatingSummary, model.PresetNone), fixture())

	avg := out.Find("average")
	require.Len(t, avg, 1)
	assert.Equal(t, "4.0", avg[0].Text)

	bars := out.Find("histogram_bar")
	require.Len(t, bars, 5)
	var ratings []string
	for _, b := range bars {
		ratings = append(ratings, b.Attrs["rating"])
	}
	assert.Equal(t, []string{"5", "4", "3", "2", "1"}, ratings)
	assert.Equal(t, 0.5, bars[0].Value)
	assert.Equal(t, 0.5, bars[2].Value)
	assert.Zero(t, bars[1].Value)
}

func TestRatingSummaryWithoutRatings(t *testing.T) {
	out := Render(configFor(model.EmbedRatingSummary, model.PresetNone), []model.Testimonial{{ID: "a"}})
	avg := out.Find("average")
	require.Len(t, avg, 1)
	assert.Equal(t, "N/A", avg[0].Text)
	for _, b := range out.Find("histogram_bar") {
		assert.Zero(t, b.Value)
	}
}

func TestFloatingBadgePosition(t *testing.T) {
	cfg := configFor(model.EmbedRatingBadgeFloating, model.PresetNone)
	cfg.StyleConfig.Position = "top-left"
	out := Render(cfg, fixture())
	assert.Equal(t, "top-left", out.Root.Attrs["position"])
	require.Len(t, out.Find("badge"), 1)
}

func TestWallAndMasonryKeepEveryRecord(t *testing.T) {
	for _, et := range []model.EmbedType{model.EmbedWall, model.EmbedMasonry} {
		out := Render(configFor(et, model.PresetNone), fixture())
		assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, out.RecordIDs(), et)
	}
}

func TestBoldHighlightsSplitsFirstSentence(t *testing.T) {
	out := Render(configFor(model.EmbedGrid, model.PresetBoldHighlights), fixture()[:1])
	hl := out.Find("highlight")
	require.Len(t, hl, 1)
	assert.Equal(t, "Great product.", hl[0].Text)
	assert.Equal(t, "Would buy again!", out.Find("message")[0].Text)
}

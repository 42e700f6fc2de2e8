// internal/render/registry.go
package render

import (
	"fmt"

	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// StrategyID names one registered layout strategy, e.g. "grid" or
// "carousel/candy_carousel".
type StrategyID string

// NotImplementedID is the strategy used for embed type values outside the closed set.
const NotImplementedID StrategyID = "not_implemented"

type renderFunc func(records []model.Testimonial, style model.Style) Block

// Strategy is one rendering strategy of the registry.
type Strategy struct {
	ID     StrategyID
	Type   model.EmbedType
	Preset model.Preset
	render renderFunc
}

type strategyKey struct {
	t model.EmbedType
	p model.Preset
}

var registry = make(map[strategyKey]Strategy)

func register(t model.EmbedType, p model.Preset, fn renderFunc) {
	id := StrategyID(t)
	if p != model.PresetNone {
		id = StrategyID(string(t) + "/" + string(p))
	}
	k := strategyKey{t: t, p: p}
	if _, exists := registry[k]; exists {
		panic(fmt.Sprintf("render: strategy %s registered twice", id))
	}
	registry[k] = Strategy{ID: id, Type: t, Preset: p, render: fn}
}

func init() {
	register(model.EmbedGrid, model.PresetNone, dataDriven(renderGrid))
	register(model.EmbedGrid, model.PresetSocialStar, dataDriven(renderGridSocialStar))
	register(model.EmbedGrid, model.PresetBoldHighlights, dataDriven(renderGridBoldHighlights))
	register(model.EmbedCarousel, model.PresetNone, dataDriven(renderCarousel))
	register(model.EmbedCarousel, model.PresetCandyCarousel, dataDriven(renderCandyCarousel))
	register(model.EmbedCarousel, model.PresetMayenCarousel, dataDriven(renderMayenCarousel))
	register(model.EmbedCarousel, model.PresetLoppaCarousel, dataDriven(renderLoppaCarousel))
	register(model.EmbedSlider, model.PresetNone, dataDriven(renderSlider))
	register(model.EmbedWall, model.PresetNone, dataDriven(renderWall))
	register(model.EmbedSingle, model.PresetNone, dataDriven(renderSingle))
	register(model.EmbedSingle, model.PresetSingleVideo, dataDriven(renderSingleVideo))
	register(model.EmbedRatingSummary, model.PresetNone, dataDriven(renderRatingSummary))
	register(model.EmbedMarqueeHorizontal, model.PresetNone, dataDriven(renderMarquee(model.EmbedMarqueeHorizontal)))
	register(model.EmbedMarqueeVertical, model.PresetNone, dataDriven(renderMarquee(model.EmbedMarqueeVertical)))
	register(model.EmbedMasonry, model.PresetNone, dataDriven(renderMasonry))
	register(model.EmbedMasonry, model.PresetTestimonialMasonry, dataDriven(renderTestimonialMasonry))
	register(model.EmbedVideoWall, model.PresetNone, renderVideoWall)
	register(model.EmbedRatingBadgeInline, model.PresetNone, dataDriven(renderInlineBadge))
	register(model.EmbedRatingBadgeFloating, model.PresetNone, dataDriven(renderFloatingBadge))
	register(model.EmbedBubbleStack, model.PresetNone, dataDriven(renderBubbleStack))
	register(model.EmbedTimeline, model.PresetNone, dataDriven(renderTimeline))
	register(model.EmbedFeaturedHero, model.PresetNone, dataDriven(renderFeaturedHero))
	register(model.EmbedCompactList, model.PresetNone, dataDriven(renderCompactList))
	register(model.EmbedCardFlip, model.PresetNone, dataDriven(renderCardFlip))
	register(model.Embed3DCarousel, model.PresetNone, comingSoon(model.Embed3DCarousel))
	register(model.EmbedWidgetPopup, model.PresetNone, comingSoon(model.EmbedWidgetPopup))
	register(model.EmbedSocialFeed, model.PresetNone, dataDriven(renderSocialFeed))
	register(model.EmbedTickerBar, model.PresetNone, dataDriven(renderTicker))

	if missing := missingStrategies(); len(missing) > 0 {
		panic(fmt.Sprintf("render: no strategy registered for %v", missing))
	}
}

// missingStrategies lists every (type, preset) pair of the model catalogue
// that has no registered strategy.
func missingStrategies() []string {
	var missing []string
	for _, t := range model.EmbedTypes {
		if _, ok := registry[strategyKey{t: t}]; !ok {
			missing = append(missing, string(t))
		}
		for _, p := range model.PresetsFor(t) {
			if _, ok := registry[strategyKey{t: t, p: p}]; !ok {
				missing = append(missing, string(t)+"/"+string(p))
			}
		}
	}
	return missing
}

// SelectStrategy resolves an embed type and an optional preset candidate to a
// strategy. A preset that is not valid for the type is ignored and the type's
// default strategy is returned. Types outside the closed set resolve to the
// not-implemented strategy. Selection never looks at data.
func SelectStrategy(t model.EmbedType, candidate model.Preset) Strategy {
	if p, ok := model.ValidPreset(t, candidate); ok {
		if s, ok := registry[strategyKey{t: t, p: p}]; ok {
			return s
		}
	}
	if s, ok := registry[strategyKey{t: t}]; ok {
		return s
	}
	return Strategy{ID: NotImplementedID, Type: t, render: notImplemented(t)}
}

// Strategies returns every registered strategy id.
func Strategies() []StrategyID {
	ids := make([]StrategyID, 0, len(registry))
	for _, s := range registry {
		ids = append(ids, s.ID)
	}
	return ids
}

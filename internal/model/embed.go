// internal/model/embed.go
// Package model defines the data structures used throughout the embed service.
// These structures represent embed configurations, testimonial records and the
// style and filter models attached to a configuration.
package model

import (
	"time"
)

// EmbedType is the top-level layout category of an embed configuration.
// The set of values is closed; see EmbedTypes.
type EmbedType string

const (
	EmbedGrid                EmbedType = "grid"
	EmbedCarousel            EmbedType = "carousel"
	EmbedSlider              EmbedType = "slider"
	EmbedWall                EmbedType = "wall"
	EmbedSingle              EmbedType = "single"
	EmbedRatingSummary       EmbedType = "rating_summary"
	EmbedMarqueeHorizontal   EmbedType = "marquee_horizontal"
	EmbedMarqueeVertical     EmbedType = "marquee_vertical"
	EmbedMasonry             EmbedType = "masonry"
	EmbedVideoWall           EmbedType = "video_wall"
	EmbedRatingBadgeInline   EmbedType = "rating_badge_inline"
	EmbedRatingBadgeFloating EmbedType = "rating_badge_floating"
	EmbedBubbleStack         EmbedType = "bubble_stack"
	EmbedTimeline            EmbedType = "timeline"
	EmbedFeaturedHero        EmbedType = "featured_hero"
	EmbedCompactList         EmbedType = "compact_list"
	EmbedCardFlip            EmbedType = "card_flip"
	Embed3DCarousel          EmbedType = "3d_carousel"
	EmbedWidgetPopup         EmbedType = "widget_popup"
	EmbedSocialFeed          EmbedType = "social_feed"
	EmbedTickerBar           EmbedType = "ticker_bar"
)

// EmbedTypes lists every embed type in catalogue order.
var EmbedTypes = []EmbedType{
	EmbedGrid,
	EmbedCarousel,
	EmbedSlider,
	EmbedWall,
	EmbedSingle,
	EmbedRatingSummary,
	EmbedMarqueeHorizontal,
	EmbedMarqueeVertical,
	EmbedMasonry,
	EmbedVideoWall,
	EmbedRatingBadgeInline,
	EmbedRatingBadgeFloating,
	EmbedBubbleStack,
	EmbedTimeline,
	EmbedFeaturedHero,
	EmbedCompactList,
	EmbedCardFlip,
	Embed3DCarousel,
	EmbedWidgetPopup,
	EmbedSocialFeed,
	EmbedTickerBar,
}

var embedTypeNames = map[EmbedType]string{
	EmbedGrid:                "Grid",
	EmbedCarousel:            "Carousel",
	EmbedSlider:              "Slider",
	EmbedWall:                "Wall of Love",
	EmbedSingle:              "Single Testimonial",
	EmbedRatingSummary:       "Rating Summary",
	EmbedMarqueeHorizontal:   "Horizontal Marquee",
	EmbedMarqueeVertical:     "Vertical Marquee",
	EmbedMasonry:             "Masonry",
	EmbedVideoWall:           "Video Wall",
	EmbedRatingBadgeInline:   "Inline Rating Badge",
	EmbedRatingBadgeFloating: "Floating Rating Badge",
	EmbedBubbleStack:         "Bubble Stack",
	EmbedTimeline:            "Timeline",
	EmbedFeaturedHero:        "Featured Hero",
	EmbedCompactList:         "Compact List",
	EmbedCardFlip:            "Card Flip",
	Embed3DCarousel:          "3D Carousel",
	EmbedWidgetPopup:         "Widget Popup",
	EmbedSocialFeed:          "Social Feed",
	EmbedTickerBar:           "Ticker Bar",
}

// Valid reports whether t is one of the closed set of embed types.
func (t EmbedType) Valid() bool {
	_, ok := embedTypeNames[t]
	return ok
}

// DisplayName returns the human-readable name of the embed type.
// Unknown values are returned verbatim.
func (t EmbedType) DisplayName() string {
	if name, ok := embedTypeNames[t]; ok {
		return name
	}
	return string(t)
}

// ComingSoon reports whether the type is reserved but intentionally unimplemented.
func (t EmbedType) ComingSoon() bool {
	return t == Embed3DCarousel || t == EmbedWidgetPopup
}

// Preset is an optional, type-scoped refinement of an embed type's look.
type Preset string

const (
	PresetNone               Preset = ""
	PresetSocialStar         Preset = "social_star"
	PresetBoldHighlights     Preset = "bold_highlights"
	PresetCandyCarousel      Preset = "candy_carousel"
	PresetMayenCarousel      Preset = "mayen_carousel"
	PresetLoppaCarousel      Preset = "loppa_carousel"
	PresetSingleVideo        Preset = "single_video"
	PresetTestimonialMasonry Preset = "testimonial_masonry"
)

var presetNames = map[Preset]string{
	PresetSocialStar:         "Social Star",
	PresetBoldHighlights:     "Bold Highlights",
	PresetCandyCarousel:      "Candy Carousel",
	PresetMayenCarousel:      "Mayen Carousel",
	PresetLoppaCarousel:      "Loppa Carousel",
	PresetSingleVideo:        "Single Video",
	PresetTestimonialMasonry: "Testimonial Masonry",
}

// DisplayName returns the human-readable name of the preset.
func (p Preset) DisplayName() string {
	if name, ok := presetNames[p]; ok {
		return name
	}
	return string(p)
}

// presetsByType holds the closed preset subset accepted by each embed type.
// Types absent from the map accept no preset.
var presetsByType = map[EmbedType][]Preset{
	EmbedGrid:     {PresetSocialStar, PresetBoldHighlights},
	EmbedCarousel: {PresetCandyCarousel, PresetMayenCarousel, PresetLoppaCarousel},
	EmbedSingle:   {PresetSingleVideo},
	EmbedMasonry:  {PresetTestimonialMasonry},
}

// PresetsFor returns the presets accepted by an embed type, in catalogue order.
// The returned slice is a copy.
func PresetsFor(t EmbedType) []Preset {
	return append([]Preset(nil), presetsByType[t]...)
}

// ValidPreset returns candidate when it belongs to the preset subset of t.
// Any other candidate, including the empty one, yields (PresetNone, false).
func ValidPreset(t EmbedType, candidate Preset) (Preset, bool) {
	if candidate == PresetNone {
		return PresetNone, false
	}
	for _, p := range presetsByType[t] {
		if p == candidate {
			return p, true
		}
	}
	return PresetNone, false
}

// EmbedConfiguration is a named, persisted description of how to present a
// set of testimonials on a third-party page.
// This corresponds to the embeds table in storage.
type EmbedConfiguration struct {
	ID          string      `json:"id,omitempty" yaml:"id,omitempty"`                       // Empty for unsaved drafts
	OwnerID     string      `json:"ownerId,omitempty" yaml:"owner_id,omitempty"`            // Owning account (JWT subject)
	Name        string      `json:"name" yaml:"name" validate:"required,max=120,no_markup"` // Display name in the dashboard
	EmbedType   EmbedType   `json:"embed_type" yaml:"embed_type" validate:"required"`       // Layout category
	Filters     FilterModel `json:"filters" yaml:"filters"`                                 // Record selection criteria
	StyleConfig StyleConfig `json:"style_config" yaml:"style_config"`                       // Flat wire style parameters
	IsActive    bool        `json:"is_active" yaml:"is_active"`                             // Inactive embeds are not served publicly
	CreatedAt   time.Time   `json:"createdAt,omitempty" yaml:"created_at,omitempty"`        // When the configuration was first saved
	UpdatedAt   time.Time   `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`        // When the configuration was last saved
}

// Draft reports whether the configuration has not been persisted yet.
func (c EmbedConfiguration) Draft() bool {
	return c.ID == ""
}

// Style resolves the configuration's wire style against its embed type.
func (c EmbedConfiguration) Style() Style {
	return ResolveStyle(c.EmbedType, c.StyleConfig)
}

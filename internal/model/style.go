// internal/model/style.go
package model

import (
	"time"
)

// StyleConfig is the flat style_config object as stored and sent on the wire.
// Variant-conditional fields may be present for any type; ResolveStyle keeps
// only the ones meaningful for the active embed type.
type StyleConfig struct {
	PrimaryColor    string `json:"primaryColor,omitempty" yaml:"primary_color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"background_color,omitempty"`
	TextColor       string `json:"textColor,omitempty" yaml:"text_color,omitempty"`
	BorderRadius    *int   `json:"borderRadius,omitempty" yaml:"border_radius,omitempty"`
	Spacing         *int   `json:"spacing,omitempty" yaml:"spacing,omitempty"`
	ShowAvatar      *bool  `json:"showAvatar,omitempty" yaml:"show_avatar,omitempty"`
	ShowRating      *bool  `json:"showRating,omitempty" yaml:"show_rating,omitempty"`
	ShowDate        *bool  `json:"showDate,omitempty" yaml:"show_date,omitempty"`

	// grid, masonry, video_wall
	Columns *int `json:"columns,omitempty" yaml:"columns,omitempty"`

	// carousel, slider, marquees, ticker
	Autoplay     *bool     `json:"autoplay,omitempty" yaml:"autoplay,omitempty"`
	Speed        Speed     `json:"speed,omitempty" yaml:"speed,omitempty"`
	Direction    Direction `json:"direction,omitempty" yaml:"direction,omitempty"`
	PauseOnHover *bool     `json:"pauseOnHover,omitempty" yaml:"pause_on_hover,omitempty"`

	// video_wall
	PlayMode         string `json:"playMode,omitempty" yaml:"play_mode,omitempty"`
	ShowPlayButton   *bool  `json:"showPlayButton,omitempty" yaml:"show_play_button,omitempty"`
	ThumbnailQuality string `json:"thumbnailQuality,omitempty" yaml:"thumbnail_quality,omitempty"`

	// rating badges
	Position string `json:"position,omitempty" yaml:"position,omitempty"`
	Size     string `json:"size,omitempty" yaml:"size,omitempty"`

	LayoutPreset Preset `json:"layoutPreset,omitempty" yaml:"layout_preset,omitempty"`
}

// Speed selects the cycle duration of auto-scrolling layouts.
type Speed string

const (
	SpeedSlow   Speed = "slow"
	SpeedMedium Speed = "medium"
	SpeedFast   Speed = "fast"
)

var speedDurations = map[Speed]time.Duration{
	SpeedSlow:   60 * time.Second,
	SpeedMedium: 40 * time.Second,
	SpeedFast:   20 * time.Second,
}

// Duration returns the fixed cycle duration for the speed.
// Unknown speeds use the medium duration.
func (s Speed) Duration() time.Duration {
	if d, ok := speedDurations[s]; ok {
		return d
	}
	return speedDurations[SpeedMedium]
}

// Normalized returns s, or SpeedMedium when s is not a known speed.
func (s Speed) Normalized() Speed {
	if _, ok := speedDurations[s]; ok {
		return s
	}
	return SpeedMedium
}

// Direction is the scroll direction of motion layouts.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

// Default style values.
const (
	DefaultPrimaryColor     = "#3B82F6"
	DefaultBackgroundColor  = "#FFFFFF"
	DefaultTextColor        = "#1F2937"
	DefaultBorderRadius     = 8
	DefaultSpacing          = 16
	DefaultColumns          = 3
	DefaultPlayMode         = "inline"
	DefaultThumbnailQuality = "high"
	DefaultBadgePosition    = "bottom-right"
	DefaultBadgeSize        = "medium"
)

// BaseStyle holds the universal style fields every strategy consumes.
type BaseStyle struct {
	PrimaryColor    string `json:"primaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	BorderRadius    int    `json:"borderRadius"`
	Spacing         int    `json:"spacing"`
	ShowAvatar      bool   `json:"showAvatar"`
	ShowRating      bool   `json:"showRating"`
	ShowDate        bool   `json:"showDate"`
}

// Extras is the variant-specific part of a resolved style. The concrete type
// is determined by the embed type the style was resolved for.
type Extras interface {
	isExtras()
}

// GridExtras applies to grid and masonry layouts.
type GridExtras struct {
	Columns int `json:"columns"`
}

// MotionExtras applies to carousel, slider, marquee and ticker layouts.
type MotionExtras struct {
	Autoplay     bool      `json:"autoplay"`
	Speed        Speed     `json:"speed"`
	Direction    Direction `json:"direction"`
	PauseOnHover bool      `json:"pauseOnHover"`
}

// VideoWallExtras applies to the video wall layout.
type VideoWallExtras struct {
	Columns          int    `json:"columns"`
	PlayMode         string `json:"playMode"`
	ShowPlayButton   bool   `json:"showPlayButton"`
	ThumbnailQuality string `json:"thumbnailQuality"`
}

// BadgeExtras applies to the rating badge layouts.
type BadgeExtras struct {
	Position string `json:"position"`
	Size     string `json:"size"`
}

func (GridExtras) isExtras()      {}
func (MotionExtras) isExtras()    {}
func (VideoWallExtras) isExtras() {}
func (BadgeExtras) isExtras()     {}

// Style is a style model resolved for one embed type.
type Style struct {
	Base   BaseStyle `json:"base"`
	Preset Preset    `json:"preset,omitempty"` // Candidate as configured; validity is decided by ValidPreset
	Extras Extras    `json:"extras,omitempty"` // nil for types without extras
}

// ResolveStyle fills defaults into the wire style and keeps only the extras
// that belong to t. Fields unrelated to t are ignored.
func ResolveStyle(t EmbedType, sc StyleConfig) Style {
	s := Style{
		Base: BaseStyle{
			PrimaryColor:    stringOr(sc.PrimaryColor, DefaultPrimaryColor),
			BackgroundColor: stringOr(sc.BackgroundColor, DefaultBackgroundColor),
			TextColor:       stringOr(sc.TextColor, DefaultTextColor),
			BorderRadius:    nonNegativeOr(sc.BorderRadius, DefaultBorderRadius),
			Spacing:         nonNegativeOr(sc.Spacing, DefaultSpacing),
			ShowAvatar:      boolOr(sc.ShowAvatar, true),
			ShowRating:      boolOr(sc.ShowRating, true),
			ShowDate:        boolOr(sc.ShowDate, false),
		},
		Preset: sc.LayoutPreset,
	}

	switch t {
	case EmbedGrid, EmbedMasonry:
		s.Extras = GridExtras{Columns: columnsOr(sc.Columns)}
	case EmbedCarousel, EmbedSlider, EmbedMarqueeHorizontal, EmbedMarqueeVertical, EmbedTickerBar:
		s.Extras = MotionExtras{
			Autoplay:     boolOr(sc.Autoplay, true),
			Speed:        sc.Speed.Normalized(),
			Direction:    directionFor(t, sc.Direction),
			PauseOnHover: boolOr(sc.PauseOnHover, true),
		}
	case EmbedVideoWall:
		s.Extras = VideoWallExtras{
			Columns:          columnsOr(sc.Columns),
			PlayMode:         stringOr(sc.PlayMode, DefaultPlayMode),
			ShowPlayButton:   boolOr(sc.ShowPlayButton, true),
			ThumbnailQuality: stringOr(sc.ThumbnailQuality, DefaultThumbnailQuality),
		}
	case EmbedRatingBadgeInline, EmbedRatingBadgeFloating:
		s.Extras = BadgeExtras{
			Position: stringOr(sc.Position, DefaultBadgePosition),
			Size:     stringOr(sc.Size, DefaultBadgeSize),
		}
	}
	return s
}

// Grid returns the grid extras, or defaults when the style carries none.
func (s Style) Grid() GridExtras {
	if g, ok := s.Extras.(GridExtras); ok {
		return g
	}
	return GridExtras{Columns: DefaultColumns}
}

// Motion returns the motion extras, or defaults when the style carries none.
func (s Style) Motion() MotionExtras {
	if m, ok := s.Extras.(MotionExtras); ok {
		return m
	}
	return MotionExtras{Autoplay: true, Speed: SpeedMedium, Direction: DirectionLeft, PauseOnHover: true}
}

// VideoWall returns the video wall extras, or defaults when the style carries none.
func (s Style) VideoWall() VideoWallExtras {
	if v, ok := s.Extras.(VideoWallExtras); ok {
		return v
	}
	return VideoWallExtras{
		Columns:          DefaultColumns,
		PlayMode:         DefaultPlayMode,
		ShowPlayButton:   true,
		ThumbnailQuality: DefaultThumbnailQuality,
	}
}

// Badge returns the badge extras, or defaults when the style carries none.
func (s Style) Badge() BadgeExtras {
	if b, ok := s.Extras.(BadgeExtras); ok {
		return b
	}
	return BadgeExtras{Position: DefaultBadgePosition, Size: DefaultBadgeSize}
}

func directionFor(t EmbedType, d Direction) Direction {
	if t == EmbedMarqueeVertical {
		if d == DirectionUp || d == DirectionDown {
			return d
		}
		return DirectionUp
	}
	if d == DirectionLeft || d == DirectionRight {
		return d
	}
	return DirectionLeft
}

func columnsOr(v *int) int {
	if v == nil || *v < 1 {
		return DefaultColumns
	}
	return *v
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func nonNegativeOr(v *int, fallback int) int {
	if v == nil || *v < 0 {
		return fallback
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}

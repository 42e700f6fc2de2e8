// Package viability checks whether a record set suits an embed configuration.
// Warnings are advisory: rendering always proceeds with the strategy's own
// fallback.
package viability

import (
	"fmt"

	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/stats"
)

// Severity grades a warning.
type Severity string

const (
	SeverityHard Severity = "hard" // The layout has nothing meaningful to show
	SeveritySoft Severity = "soft" // The layout works but looks sparse
)

// Code identifies the condition behind a warning.
type Code string

const (
	CodeNoTestimonials   Code = "no_testimonials"
	CodeNoVideo          Code = "no_video"
	CodeFewVideos        Code = "few_videos"
	CodeNoRatings        Code = "no_ratings"
	CodePresetNeedsVideo Code = "preset_needs_video"
)

// MinVideos is the video count from which a video wall raises no warning.
const MinVideos = 3

// Warning is one advisory about the record set.
type Warning struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (w Warning) String() string {
	return string(w.Severity) + ": " + w.Message
}

// Check evaluates every rule independently and reports all that apply, in
// rule order.
func Check(t model.EmbedType, style model.Style, records []model.Testimonial) []Warning {
	var out []Warning

	if len(records) == 0 {
		out = append(out, Warning{
			Code:     CodeNoTestimonials,
			Severity: SeverityHard,
			Message:  "No approved testimonials found for the current filters",
		})
	}

	if t == model.EmbedVideoWall {
		switch n := stats.CountVideos(records); {
		case n == 0:
			out = append(out, Warning{
				Code:     CodeNoVideo,
				Severity: SeverityHard,
				Message:  "Video Wall requires video testimonials, none found",
			})
		case n < MinVideos:
			out = append(out, Warning{
				Code:     CodeFewVideos,
				Severity: SeveritySoft,
				Message:  fmt.Sprintf("Video Wall works best with at least %d video testimonials (currently %d)", MinVideos, n),
			})
		}
	}

	switch t {
	case model.EmbedRatingSummary, model.EmbedRatingBadgeInline, model.EmbedRatingBadgeFloating:
		if stats.RatedCount(records) == 0 {
			out = append(out, Warning{
				Code:     CodeNoRatings,
				Severity: SeveritySoft,
				Message:  fmt.Sprintf("%s needs rated testimonials, none found", t.DisplayName()),
			})
		}
	}

	if p, ok := model.ValidPreset(t, style.Preset); ok && needsVideo(p) && stats.CountVideos(records) == 0 {
		out = append(out, Warning{
			Code:     CodePresetNeedsVideo,
			Severity: SeveritySoft,
			Message:  fmt.Sprintf("The %s preset needs video testimonials, none found", p.DisplayName()),
		})
	}

	return out
}

func needsVideo(p model.Preset) bool {
	return p == model.PresetSingleVideo || p == model.PresetLoppaCarousel
}

// HasHard reports whether any warning is hard.
func HasHard(ws []Warning) bool {
	for _, w := range ws {
		if w.Severity == SeverityHard {
			return true
		}
	}
	return false
}

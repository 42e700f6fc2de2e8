// internal/render/ratings.go
package render

import (
	"strconv"

	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/stats"
)

// ratingHeadline is the average, its stars and the review count shared by the
// summary and badge layouts.
func ratingHeadline(records []model.Testimonial, style model.Style) []Block {
	avg, ok := stats.AverageRating(records)
	value := textBlock("average", stats.FormatAverage(avg, ok), style)
	value.Style.FontWeight = "700"
	value.Style.FontSize = "2xl"
	count := textBlock("count", reviewCount(stats.RatedCount(records)), style)
	return []Block{value, ratingBlock(roundedStars(avg, ok), style), count}
}

func reviewCount(n int) string {
	if n == 1 {
		return "Based on 1 review"
	}
	return "Based on " + strconv.Itoa(n) + " reviews"
}

// renderRatingSummary shows the average and a bar per rating from 5 down to 1,
// each filled by its share of rated records.
func renderRatingSummary(records []model.Testimonial, style model.Style) Block {
	children := ratingHeadline(records, style)
	for _, b := range stats.RatingHistogram(records) {
		children = append(children, Block{
			Kind:  KindBar,
			Role:  "histogram_bar",
			Value: b.Ratio,
			Style: BlockStyle{Color: style.Base.PrimaryColor, BorderRadius: style.Base.BorderRadius},
			Attrs: map[string]string{
				"rating": strconv.Itoa(b.Rating),
				"count":  strconv.Itoa(b.Count),
			},
		})
	}
	return layout("rating_summary", style, nil, children)
}

func badge(variant string, records []model.Testimonial, style model.Style) Block {
	b := style.Badge()
	return Block{
		Kind: KindBadge,
		Role: "badge",
		Style: BlockStyle{
			Color:        style.Base.TextColor,
			Background:   style.Base.BackgroundColor,
			BorderRadius: style.Base.BorderRadius,
			Padding:      style.Base.Spacing / 2,
			Gap:          style.Base.Spacing / 2,
		},
		Attrs:    map[string]string{"variant": variant, "size": b.Size},
		Children: ratingHeadline(records, style),
	}
}

func renderInlineBadge(records []model.Testimonial, style model.Style) Block {
	return layout("rating_badge_inline", style, nil, []Block{badge("inline", records, style)})
}

// renderFloatingBadge pins the badge to a viewport corner.
func renderFloatingBadge(records []model.Testimonial, style model.Style) Block {
	root := layout("rating_badge_floating", style, map[string]string{"position": style.Badge().Position}, []Block{badge("floating", records, style)})
	root.Style.Background = ""
	return root
}

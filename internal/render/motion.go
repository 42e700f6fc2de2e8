// internal/render/motion.go
package render

import (
	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/stats"
)

// candyPalette tints consecutive candy carousel slides.
var candyPalette = []string{"#FDE68A", "#FBCFE8", "#BFDBFE", "#BBF7D0", "#DDD6FE"}

func slides(role string, records []model.Testimonial, style model.Style, card func(int, model.Testimonial) Block) Block {
	items := make([]Block, 0, len(records))
	for i, rec := range records {
		items = append(items, card(i, rec))
	}
	return layout(role, style, motionAttrs(style.Motion()), items)
}

func renderCarousel(records []model.Testimonial, style model.Style) Block {
	return slides("carousel", records, style, func(_ int, rec model.Testimonial) Block {
		return standardCard(rec, style, "carousel")
	})
}

func renderCandyCarousel(records []model.Testimonial, style model.Style) Block {
	return slides("carousel", records, style, func(i int, rec model.Testimonial) Block {
		card := standardCard(rec, style, "candy_carousel")
		card.Style.Background = candyPalette[i%len(candyPalette)]
		card.Style.BorderRadius = style.Base.BorderRadius * 2
		return card
	})
}

// renderMayenCarousel splits every slide into a quote side and an author side.
func renderMayenCarousel(records []model.Testimonial, style model.Style) Block {
	return slides("carousel", records, style, func(_ int, rec model.Testimonial) Block {
		quote := Block{Kind: KindLayout, Role: "quote_side", Style: BlockStyle{Gap: style.Base.Spacing / 2}}
		if b, ok := recordRating(rec, style); ok {
			quote.Children = append(quote.Children, b)
		}
		if b, ok := recordMessage(rec, style); ok {
			quote.Children = append(quote.Children, b)
		}

		author := Block{Kind: KindLayout, Role: "author_side", Style: BlockStyle{Background: style.Base.PrimaryColor, Color: style.Base.BackgroundColor}}
		if b, ok := recordAvatar(rec, style, "large"); ok {
			author.Children = append(author.Children, b)
		}
		author.Children = append(author.Children, recordAuthor(rec, style)...)

		return Block{
			Kind:     KindCard,
			Role:     "item",
			RecordID: rec.ID,
			Style:    cardStyle(style),
			Attrs:    map[string]string{"variant": "mayen_carousel"},
			Children: []Block{quote, author},
		}
	})
}

// renderLoppaCarousel puts the record's video in front of each slide. Records
// without a video keep their image, or the text card alone.
func renderLoppaCarousel(records []model.Testimonial, style model.Style) Block {
	return slides("carousel", records, style, func(_ int, rec model.Testimonial) Block {
		card := standardCard(rec, style, "loppa_carousel")
		if b, ok := recordMedia(rec); ok {
			card.Children = append([]Block{b}, card.Children...)
		}
		if !rec.HasVideo() {
			card.Attrs["fallback"] = "no_video"
		}
		return card
	})
}

func renderSlider(records []model.Testimonial, style model.Style) Block {
	root := slides("slider", records, style, func(_ int, rec model.Testimonial) Block {
		return standardCard(rec, style, "slider")
	})
	root.Attrs["indicators"] = "dots"
	return root
}

// renderMarquee renders the records twice in a row so the strip can loop
// without a visible seam.
func renderMarquee(t model.EmbedType) renderFunc {
	role := "marquee"
	if t == model.EmbedMarqueeVertical {
		role = "marquee_vertical"
	}
	return func(records []model.Testimonial, style model.Style) Block {
		return slides(role, stats.Loop(records), style, func(_ int, rec model.Testimonial) Block {
			return standardCard(rec, style, "marquee")
		})
	}
}

// renderTicker is a single-line marquee: stars, a short quote and the author.
func renderTicker(records []model.Testimonial, style model.Style) Block {
	return slides("ticker", stats.Loop(records), style, func(_ int, rec model.Testimonial) Block {
		item := Block{
			Kind:     KindCard,
			Role:     "item",
			RecordID: rec.ID,
			Style:    BlockStyle{Color: style.Base.TextColor, Gap: style.Base.Spacing / 2},
			Attrs:    map[string]string{"variant": "ticker"},
		}
		if b, ok := recordRating(rec, style); ok {
			item.Children = append(item.Children, b)
		}
		if rec.Message != "" {
			item.Children = append(item.Children, textBlock("message", truncateRunes(rec.Message, tickerMessageRunes), style))
		}
		item.Children = append(item.Children, textBlock("author", rec.AuthorName, style))
		return item
	})
}

const tickerMessageRunes = 80

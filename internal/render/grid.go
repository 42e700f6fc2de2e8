// internal/render/grid.go
package render

import (
	"strconv"
	"unicode/utf8"

	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// wallColumns is the fixed column count of the wall layout.
const wallColumns = 3

func gridAttrs(columns int) map[string]string {
	return map[string]string{"columns": strconv.Itoa(columns)}
}

func renderGrid(records []model.Testimonial, style model.Style) Block {
	items := make([]Block, 0, len(records))
	for _, rec := range records {
		items = append(items, standardCard(rec, style, "grid"))
	}
	return layout("grid", style, gridAttrs(style.Grid().Columns), items)
}

// renderGridSocialStar renders each card as a social post: avatar, name and
// stars in a header row above the message.
func renderGridSocialStar(records []model.Testimonial, style model.Style) Block {
	items := make([]Block, 0, len(records))
	for _, rec := range records {
		header := Block{Kind: KindLayout, Role: "header", Style: BlockStyle{Gap: style.Base.Spacing / 2}}
		if b, ok := recordAvatar(rec, style, "small"); ok {
			header.Children = append(header.Children, b)
		}
		header.Children = append(header.Children, recordAuthor(rec, style)...)
		if b, ok := recordRating(rec, style); ok {
			header.Children = append(header.Children, b)
		}

		card := Block{
			Kind:     KindCard,
			Role:     "item",
			RecordID: rec.ID,
			Style:    cardStyle(style),
			Attrs:    map[string]string{"variant": "social_star"},
			Children: []Block{header},
		}
		if b, ok := recordMessage(rec, style); ok {
			card.Children = append(card.Children, b)
		}
		items = append(items, card)
	}
	return layout("grid", style, gridAttrs(style.Grid().Columns), items)
}

// renderGridBoldHighlights emphasises the first sentence of each message in
// the primary color.
func renderGridBoldHighlights(records []model.Testimonial, style model.Style) Block {
	items := make([]Block, 0, len(records))
	for _, rec := range records {
		card := Block{
			Kind:     KindCard,
			Role:     "item",
			RecordID: rec.ID,
			Style:    cardStyle(style),
			Attrs:    map[string]string{"variant": "bold_highlights"},
		}
		if b, ok := recordRating(rec, style); ok {
			card.Children = append(card.Children, b)
		}
		if rec.Message != "" {
			head, rest := firstSentence(rec.Message)
			hl := textBlock("highlight", head, style)
			hl.Style.Color = style.Base.PrimaryColor
			hl.Style.FontWeight = "700"
			hl.Style.FontSize = "lg"
			card.Children = append(card.Children, hl)
			if rest != "" {
				card.Children = append(card.Children, textBlock("message", rest, style))
			}
		}
		if b, ok := recordAvatar(rec, style, "small"); ok {
			card.Children = append(card.Children, b)
		}
		card.Children = append(card.Children, recordAuthor(rec, style)...)
		items = append(items, card)
	}
	return layout("grid", style, gridAttrs(style.Grid().Columns), items)
}

// renderWall distributes cards round-robin over a fixed number of columns.
// Top-level children are the column containers.
func renderWall(records []model.Testimonial, style model.Style) Block {
	n := wallColumns
	if len(records) < n {
		n = len(records)
	}
	cols := make([]Block, n)
	for i := range cols {
		cols[i] = Block{Kind: KindLayout, Role: "column", Style: BlockStyle{Gap: style.Base.Spacing}}
	}
	for i, rec := range records {
		c := &cols[i%n]
		c.Children = append(c.Children, standardCard(rec, style, "wall"))
	}
	return layout("wall", style, gridAttrs(n), cols)
}

// estimatedHeight approximates a card's rendered height in abstract units so
// masonry can pack by shortest column without a layout engine.
func estimatedHeight(rec model.Testimonial, style model.Style) int {
	h := 4 + utf8.RuneCountInString(rec.Message)/40
	if style.Base.ShowAvatar {
		h += 2
	}
	if style.Base.ShowRating {
		h++
	}
	if rec.ImageURL != "" || rec.VideoURL != "" {
		h += 8
	}
	return h
}

func packMasonry(records []model.Testimonial, style model.Style, card func(model.Testimonial) Block) Block {
	n := style.Grid().Columns
	if len(records) < n {
		n = len(records)
	}
	cols := make([]Block, n)
	heights := make([]int, n)
	for i := range cols {
		cols[i] = Block{Kind: KindLayout, Role: "column", Style: BlockStyle{Gap: style.Base.Spacing}}
	}
	for _, rec := range records {
		shortest := 0
		for i := 1; i < n; i++ {
			if heights[i] < heights[shortest] {
				shortest = i
			}
		}
		cols[shortest].Children = append(cols[shortest].Children, card(rec))
		heights[shortest] += estimatedHeight(rec, style)
	}
	return layout("masonry", style, gridAttrs(n), cols)
}

func renderMasonry(records []model.Testimonial, style model.Style) Block {
	return packMasonry(records, style, func(rec model.Testimonial) Block {
		card := standardCard(rec, style, "masonry")
		if b, ok := recordMedia(rec); ok {
			card.Children = append(card.Children, b)
		}
		return card
	})
}

// renderTestimonialMasonry leads each card with its media and a large quote mark.
func renderTestimonialMasonry(records []model.Testimonial, style model.Style) Block {
	return packMasonry(records, style, func(rec model.Testimonial) Block {
		card := Block{
			Kind:     KindCard,
			Role:     "item",
			RecordID: rec.ID,
			Style:    cardStyle(style),
			Attrs:    map[string]string{"variant": "testimonial_masonry"},
		}
		if b, ok := recordMedia(rec); ok {
			card.Children = append(card.Children, b)
		}
		quote := textBlock("quote_mark", "“", style)
		quote.Style.Color = style.Base.PrimaryColor
		quote.Style.FontSize = "3xl"
		card.Children = append(card.Children, quote)
		if b, ok := recordMessage(rec, style); ok {
			card.Children = append(card.Children, b)
		}
		if b, ok := recordRating(rec, style); ok {
			card.Children = append(card.Children, b)
		}
		if b, ok := recordAvatar(rec, style, "small"); ok {
			card.Children = append(card.Children, b)
		}
		card.Children = append(card.Children, recordAuthor(rec, style)...)
		return card
	})
}

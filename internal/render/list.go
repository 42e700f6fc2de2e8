// internal/render/list.go
package render

import (
	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// side alternates by index parity: even indexes go left, odd ones right.
func side(i int) string {
	if i%2 == 0 {
		return "left"
	}
	return "right"
}

func renderBubbleStack(records []model.Testimonial, style model.Style) Block {
	items := make([]Block, 0, len(records))
	for i, rec := range records {
		bubble := Block{
			Kind:     KindCard,
			Role:     "item",
			RecordID: rec.ID,
			Style:    cardStyle(style),
			Attrs:    map[string]string{"variant": "bubble", "side": side(i)},
		}
		bubble.Style.BorderRadius = style.Base.BorderRadius * 2
		if b, ok := recordAvatar(rec, style, "small"); ok {
			bubble.Children = append(bubble.Children, b)
		}
		if b, ok := recordMessage(rec, style); ok {
			bubble.Children = append(bubble.Children, b)
		}
		if b, ok := recordRating(rec, style); ok {
			bubble.Children = append(bubble.Children, b)
		}
		bubble.Children = append(bubble.Children, textBlock("author", rec.AuthorName, style))
		items = append(items, bubble)
	}
	return layout("bubble_stack", style, nil, items)
}

// renderTimeline places records along a vertical line. The date is always
// part of a timeline entry; records without a timestamp omit it.
func renderTimeline(records []model.Testimonial, style model.Style) Block {
	items := make([]Block, 0, len(records))
	for i, rec := range records {
		entry := standardCard(rec, style, "timeline")
		entry.Attrs["side"] = side(i)
		if !style.Base.ShowDate {
			if d, ok := recordDate(rec, style); ok {
				entry.Children = append([]Block{d}, entry.Children...)
			}
		}
		items = append(items, entry)
	}
	root := layout("timeline", style, nil, items)
	root.Style.Color = style.Base.PrimaryColor
	return root
}

// renderCompactList renders one dense row per record.
func renderCompactList(records []model.Testimonial, style model.Style) Block {
	items := make([]Block, 0, len(records))
	for _, rec := range records {
		row := Block{
			Kind:     KindCard,
			Role:     "item",
			RecordID: rec.ID,
			Style:    BlockStyle{Color: style.Base.TextColor, Padding: style.Base.Spacing / 2, Gap: style.Base.Spacing / 2},
			Attrs:    map[string]string{"variant": "compact"},
		}
		if b, ok := recordAvatar(rec, style, "small"); ok {
			row.Children = append(row.Children, b)
		}
		row.Children = append(row.Children, recordAuthor(rec, style)...)
		if b, ok := recordRating(rec, style); ok {
			row.Children = append(row.Children, b)
		}
		if b, ok := recordMessage(rec, style); ok {
			row.Children = append(row.Children, b)
		}
		items = append(items, row)
	}
	return layout("compact_list", style, nil, items)
}

// renderSocialFeed renders records as posts with their media below the text.
func renderSocialFeed(records []model.Testimonial, style model.Style) Block {
	items := make([]Block, 0, len(records))
	for _, rec := range records {
		post := Block{
			Kind:     KindCard,
			Role:     "item",
			RecordID: rec.ID,
			Style:    cardStyle(style),
			Attrs:    map[string]string{"variant": "social_post"},
		}
		header := Block{Kind: KindLayout, Role: "header", Style: BlockStyle{Gap: style.Base.Spacing / 2}}
		if b, ok := recordAvatar(rec, style, "small"); ok {
			header.Children = append(header.Children, b)
		}
		header.Children = append(header.Children, recordAuthor(rec, style)...)
		post.Children = append(post.Children, header)
		if b, ok := recordMessage(rec, style); ok {
			post.Children = append(post.Children, b)
		}
		if b, ok := recordMedia(rec); ok {
			post.Children = append(post.Children, b)
		}
		if b, ok := recordRating(rec, style); ok {
			post.Children = append(post.Children, b)
		}
		items = append(items, post)
	}
	return layout("social_feed", style, nil, items)
}

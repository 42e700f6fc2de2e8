// internal/render/single.go
package render

import (
	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// CardFlipMessageRunes is the message length shown on the front of a flip card.
const CardFlipMessageRunes = 120

// renderSingle shows the first record as given; records are never re-sorted.
func renderSingle(records []model.Testimonial, style model.Style) Block {
	return layout("single", style, nil, []Block{standardCard(records[0], style, "single")})
}

// renderSingleVideo shows the first record carrying a video. Without one it
// falls back to the first record's text card.
func renderSingleVideo(records []model.Testimonial, style model.Style) Block {
	for _, rec := range records {
		if !rec.HasVideo() {
			continue
		}
		card := standardCard(rec, style, "single_video")
		media, _ := recordMedia(rec)
		card.Children = append([]Block{media}, card.Children...)
		return layout("single", style, nil, []Block{card})
	}
	card := standardCard(records[0], style, "single_video")
	card.Attrs["fallback"] = "no_video"
	return layout("single", style, nil, []Block{card})
}

func renderFeaturedHero(records []model.Testimonial, style model.Style) Block {
	rec := records[0]
	hero := Block{
		Kind:     KindCard,
		Role:     "item",
		RecordID: rec.ID,
		Style:    cardStyle(style),
		Attrs:    map[string]string{"variant": "featured_hero"},
	}
	hero.Style.Padding = style.Base.Spacing * 2
	if b, ok := recordMedia(rec); ok {
		hero.Children = append(hero.Children, b)
	}
	if b, ok := recordRating(rec, style); ok {
		hero.Children = append(hero.Children, b)
	}
	if b, ok := recordMessage(rec, style); ok {
		b.Style.FontSize = "2xl"
		hero.Children = append(hero.Children, b)
	}
	if b, ok := recordAvatar(rec, style, "large"); ok {
		hero.Children = append(hero.Children, b)
	}
	hero.Children = append(hero.Children, recordAuthor(rec, style)...)
	return layout("featured_hero", style, nil, []Block{hero})
}

// renderCardFlip gives every record a front face with a shortened message and
// stars, and a back face with the author.
func renderCardFlip(records []model.Testimonial, style model.Style) Block {
	items := make([]Block, 0, len(records))
	for _, rec := range records {
		front := Block{Kind: KindFace, Role: "front", Style: cardStyle(style)}
		if rec.Message != "" {
			front.Children = append(front.Children, textBlock("message", truncateRunes(rec.Message, CardFlipMessageRunes), style))
		}
		if b, ok := recordRating(rec, style); ok {
			front.Children = append(front.Children, b)
		}

		back := Block{Kind: KindFace, Role: "back", Style: cardStyle(style)}
		back.Style.Background = style.Base.PrimaryColor
		back.Style.Color = style.Base.BackgroundColor
		if b, ok := recordAvatar(rec, style, "large"); ok {
			back.Children = append(back.Children, b)
		}
		back.Children = append(back.Children, textBlock("author", rec.AuthorName, style))
		if rec.AuthorCompany != "" {
			back.Children = append(back.Children, textBlock("company", rec.AuthorCompany, style))
		}

		items = append(items, Block{
			Kind:     KindCard,
			Role:     "item",
			RecordID: rec.ID,
			Attrs:    map[string]string{"variant": "card_flip"},
			Children: []Block{front, back},
		})
	}
	return layout("card_flip", style, nil, items)
}

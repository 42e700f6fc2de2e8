// internal/render/parts.go
package render

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/proofwall/proofwall-embed-go/internal/model"
)

const dateLayout = "Jan 2, 2006"

// stars returns exactly StarSlots slots with the first filled ones in the
// primary color. Values outside 0..5 are clamped.
func stars(filled int, style model.Style) []Star {
	if filled < 0 {
		filled = 0
	}
	if filled > StarSlots {
		filled = StarSlots
	}
	out := make([]Star, StarSlots)
	for i := range out {
		if i < filled {
			out[i] = Star{Filled: true, Color: style.Base.PrimaryColor}
		} else {
			out[i] = Star{Filled: false, Color: EmptyStarColor}
		}
	}
	return out
}

func ratingBlock(filled int, style model.Style) Block {
	return Block{
		Kind:  KindRating,
		Role:  "rating",
		Stars: stars(filled, style),
		Style: BlockStyle{Color: style.Base.PrimaryColor},
	}
}

// recordRating returns the rating block of a record when ratings are shown.
// A missing rating yields zero filled slots.
func recordRating(rec model.Testimonial, style model.Style) (Block, bool) {
	if !style.Base.ShowRating {
		return Block{}, false
	}
	return ratingBlock(rec.RatingValue(), style), true
}

// roundedStars converts an average to a whole number of filled slots.
func roundedStars(avg float64, ok bool) int {
	if !ok {
		return 0
	}
	return int(math.Round(avg))
}

// recordAvatar returns the avatar block of a record when avatars are shown.
// Without an avatar reference the block carries the author's initials.
func recordAvatar(rec model.Testimonial, style model.Style, size string) (Block, bool) {
	if !style.Base.ShowAvatar {
		return Block{}, false
	}
	b := Block{
		Kind:     KindAvatar,
		Role:     "avatar",
		RecordID: rec.ID,
		Style:    BlockStyle{Background: style.Base.PrimaryColor, Color: style.Base.BackgroundColor, BorderRadius: 9999},
		Attrs:    map[string]string{"size": size},
	}
	if rec.AvatarURL != "" {
		b.Media = &Media{Type: "image", URL: rec.AvatarURL}
	} else {
		b.Text = initials(rec.AuthorName)
		b.Attrs["fallback"] = "initials"
	}
	return b, true
}

// initials returns up to two upper-case initials of name, or "?" for an empty name.
func initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		if n++; n == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

func textBlock(role, text string, style model.Style) Block {
	return Block{
		Kind:  KindText,
		Role:  role,
		Text:  text,
		Style: BlockStyle{Color: style.Base.TextColor},
	}
}

// recordMessage returns the message block, omitted for records without text.
func recordMessage(rec model.Testimonial, style model.Style) (Block, bool) {
	if rec.Message == "" {
		return Block{}, false
	}
	return textBlock("message", rec.Message, style), true
}

// recordAuthor returns the name line and, when present, the company and date lines.
func recordAuthor(rec model.Testimonial, style model.Style) []Block {
	name := textBlock("author", rec.AuthorName, style)
	name.Style.FontWeight = "600"
	out := []Block{name}
	if rec.AuthorCompany != "" {
		out = append(out, textBlock("company", rec.AuthorCompany, style))
	}
	if style.Base.ShowDate {
		if d, ok := recordDate(rec, style); ok {
			out = append(out, d)
		}
	}
	return out
}

func recordDate(rec model.Testimonial, style model.Style) (Block, bool) {
	if rec.CreatedAt.IsZero() {
		return Block{}, false
	}
	return textBlock("date", rec.CreatedAt.Format(dateLayout), style), true
}

// recordMedia returns a media block preferring video over image.
func recordMedia(rec model.Testimonial) (Block, bool) {
	switch {
	case rec.VideoURL != "":
		return Block{Kind: KindMedia, Role: "media", RecordID: rec.ID, Media: &Media{Type: "video", URL: rec.VideoURL, Poster: rec.ImageURL}}, true
	case rec.ImageURL != "":
		return Block{Kind: KindMedia, Role: "media", RecordID: rec.ID, Media: &Media{Type: "image", URL: rec.ImageURL}}, true
	}
	return Block{}, false
}

func cardStyle(style model.Style) BlockStyle {
	return BlockStyle{
		Color:        style.Base.TextColor,
		Background:   style.Base.BackgroundColor,
		BorderRadius: style.Base.BorderRadius,
		Padding:      style.Base.Spacing,
		Gap:          style.Base.Spacing / 2,
	}
}

// standardCard is the card most strategies share: avatar, rating, message
// and author lines.
func standardCard(rec model.Testimonial, style model.Style, variant string) Block {
	card := Block{
		Kind:     KindCard,
		Role:     "item",
		RecordID: rec.ID,
		Style:    cardStyle(style),
		Attrs:    map[string]string{"variant": variant},
	}
	if b, ok := recordAvatar(rec, style, "medium"); ok {
		card.Children = append(card.Children, b)
	}
	if b, ok := recordRating(rec, style); ok {
		card.Children = append(card.Children, b)
	}
	if b, ok := recordMessage(rec, style); ok {
		card.Children = append(card.Children, b)
	}
	card.Children = append(card.Children, recordAuthor(rec, style)...)
	return card
}

func layout(role string, style model.Style, attrs map[string]string, children []Block) Block {
	return Block{
		Kind:     KindLayout,
		Role:     role,
		Style:    BlockStyle{Background: style.Base.BackgroundColor, Gap: style.Base.Spacing},
		Attrs:    attrs,
		Children: children,
	}
}

// motionAttrs describes the animation of an auto-scrolling layout.
func motionAttrs(m model.MotionExtras) map[string]string {
	return map[string]string{
		"autoplay":        strconv.FormatBool(m.Autoplay),
		"speed":           string(m.Speed),
		"durationSeconds": strconv.Itoa(int(m.Speed.Duration().Seconds())),
		"direction":       string(m.Direction),
		"pauseOnHover":    strconv.FormatBool(m.PauseOnHover),
	}
}

// truncateRunes shortens s to at most n runes, ending in an ellipsis when cut.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace) + "…"
}

// firstSentence splits s after its first sentence terminator.
func firstSentence(s string) (head, rest string) {
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			end := i + utf8.RuneLen(r)
			return strings.TrimSpace(s[:end]), strings.TrimSpace(s[end:])
		}
	}
	return strings.TrimSpace(s), ""
}

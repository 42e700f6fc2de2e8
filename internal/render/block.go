// internal/render/block.go
// Package render implements the layout strategy registry and the presentation
// renderer. Rendering is a pure function from a resolved style and an ordered
// list of testimonials to a tree of typed blocks; it never mutates its input
// and never fails.
package render

import (
	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// Kind is the type of a presentation block.
type Kind string

const (
	KindLayout      Kind = "layout"      // Container arranging its children
	KindCard        Kind = "card"        // One testimonial
	KindAvatar      Kind = "avatar"      // Author image or initials placeholder
	KindRating      Kind = "rating"      // Five star slots
	KindText        Kind = "text"        // Any text run; Role tells which
	KindMedia       Kind = "media"       // Image or video
	KindBadge       Kind = "badge"       // Compact rating badge
	KindBar         Kind = "bar"         // Histogram bar
	KindFace        Kind = "face"        // One side of a flip card
	KindEmpty       Kind = "empty"       // Empty state
	KindPlaceholder Kind = "placeholder" // Coming soon / not implemented
)

// StarSlots is the number of slots of every rating block.
const StarSlots = 5

// EmptyStarColor is the outline color of unfilled star slots.
const EmptyStarColor = "#D1D5DB"

// Block is one node of a presentation tree.
type Block struct {
	Kind     Kind              `json:"kind"`
	Role     string            `json:"role,omitempty"`
	RecordID string            `json:"recordId,omitempty"`
	Text     string            `json:"text,omitempty"`
	Value    float64           `json:"value,omitempty"` // Bar fill ratio in [0,1]
	Stars    []Star            `json:"stars,omitempty"`
	Media    *Media            `json:"media,omitempty"`
	Style    BlockStyle        `json:"style"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Block           `json:"children,omitempty"`
}

// Star is one slot of a rating block.
type Star struct {
	Filled bool   `json:"filled"`
	Color  string `json:"color"`
}

// Media references an image or a video.
type Media struct {
	Type   string `json:"type"` // "image" or "video"
	URL    string `json:"url"`
	Poster string `json:"poster,omitempty"`
}

// BlockStyle carries the resolved style values of a block.
type BlockStyle struct {
	Color        string `json:"color,omitempty"`
	Background   string `json:"background,omitempty"`
	BorderRadius int    `json:"borderRadius,omitempty"`
	Padding      int    `json:"padding,omitempty"`
	Gap          int    `json:"gap,omitempty"`
	FontSize     string `json:"fontSize,omitempty"`
	FontWeight   string `json:"fontWeight,omitempty"`
}

// Presentation is the output of one render pass.
type Presentation struct {
	EmbedType model.EmbedType `json:"embedType"`
	Strategy  StrategyID      `json:"strategy"`
	Preset    model.Preset    `json:"preset,omitempty"`
	Root      Block           `json:"root"`
}

// Walk calls fn for b and every descendant in depth-first order.
func (b Block) Walk(fn func(Block)) {
	fn(b)
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// RecordIDs returns the record id of every item block in depth-first order.
// Column layouts list their records column by column.
func (p Presentation) RecordIDs() []string {
	var ids []string
	p.Root.Walk(func(b Block) {
		if b.Role == "item" && b.RecordID != "" {
			ids = append(ids, b.RecordID)
		}
	})
	return ids
}

// Find returns every block in the tree with the given role.
func (p Presentation) Find(role string) []Block {
	var out []Block
	p.Root.Walk(func(b Block) {
		if b.Role == role {
			out = append(out, b)
		}
	})
	return out
}

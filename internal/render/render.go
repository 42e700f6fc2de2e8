// internal/render/render.go
package render

import (
	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// Render selects the strategy for cfg and renders records with it.
func Render(cfg model.EmbedConfiguration, records []model.Testimonial) Presentation {
	style := cfg.Style()
	return RenderStrategy(SelectStrategy(cfg.EmbedType, style.Preset), style, records)
}

// RenderStrategy renders records with an already selected strategy.
func RenderStrategy(s Strategy, style model.Style, records []model.Testimonial) Presentation {
	return Presentation{
		EmbedType: s.Type,
		Strategy:  s.ID,
		Preset:    s.Preset,
		Root:      s.render(records, style),
	}
}

// dataDriven wraps a strategy so that an empty record list renders the
// generic empty state.
func dataDriven(fn renderFunc) renderFunc {
	return func(records []model.Testimonial, style model.Style) Block {
		if len(records) == 0 {
			return emptyState("no_testimonials", "No testimonials to display yet", style)
		}
		return fn(records, style)
	}
}

func emptyState(role, text string, style model.Style) Block {
	return Block{
		Kind:  KindEmpty,
		Role:  role,
		Text:  text,
		Style: BlockStyle{Color: style.Base.TextColor, Background: style.Base.BackgroundColor, Padding: style.Base.Spacing},
	}
}

// comingSoon renders the fixed placeholder of reserved embed types. It reads
// neither records nor style.
func comingSoon(t model.EmbedType) renderFunc {
	return func([]model.Testimonial, model.Style) Block {
		return Block{
			Kind:  KindPlaceholder,
			Role:  "coming_soon",
			Text:  t.DisplayName() + " is coming soon",
			Attrs: map[string]string{"embedType": string(t)},
		}
	}
}

// notImplemented renders the placeholder for embed type values outside the
// closed set, such as stale persisted data.
func notImplemented(t model.EmbedType) renderFunc {
	return func([]model.Testimonial, model.Style) Block {
		return Block{
			Kind:  KindPlaceholder,
			Role:  "not_implemented",
			Text:  "This layout is not implemented",
			Attrs: map[string]string{"embedType": string(t)},
		}
	}
}

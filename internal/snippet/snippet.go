// Package snippet generates the copy-paste distribution snippets of an embed.
package snippet

import (
	"fmt"
	"html"
	"strings"

	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// Placeholder replaces the id of an unsaved draft.
const Placeholder = "YOUR_EMBED_ID"

// DefaultBaseURL is the public distribution host.
const DefaultBaseURL = "https://embed.proofwall.io"

// Emitter renders snippets against a fixed distribution base URL.
type Emitter struct {
	BaseURL string
}

// NewEmitter returns an Emitter for baseURL, or DefaultBaseURL when empty.
func NewEmitter(baseURL string) Emitter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Emitter{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Generate returns the script, iframe and component snippets for id. It never
// checks that id exists, so id is escaped before it reaches an attribute.
func (e Emitter) Generate(id string) model.Snippets {
	if id == "" {
		id = Placeholder
	}
	id = html.EscapeString(id)
	base := e.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	script := fmt.Sprintf("<script src=\"%s/widget.js\" defer></script>\n<div class=\"proofwall-embed\" data-embed-id=\"%s\"></div>", base, id)
	iframe := fmt.Sprintf(`<iframe src="%s/embed/%s" width="100%%" height="600" frameborder="0" loading="lazy" title="Testimonials"></iframe>`, base, id)
	return model.Snippets{
		Script:       script,
		IFrame:       iframe,
		ComponentRef: fmt.Sprintf(`<ProofwallEmbed embedId="%s" />`, id),
	}
}

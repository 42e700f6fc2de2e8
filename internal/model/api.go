// internal/model/api.go
package model

import "encoding/json"

// SaveEmbedResponse is returned after an embed configuration has been saved.
type SaveEmbedResponse struct {
	Embed    EmbedConfiguration `json:"embed"`    // The stored configuration
	Snippets Snippets           `json:"snippets"` // Distribution snippets for the stored id
}

// Snippets holds the three distribution snippets for an embed.
type Snippets struct {
	Script       string `json:"script"`
	IFrame       string `json:"iframe"`
	ComponentRef string `json:"componentRef"`
}

// ListEmbedsResponse holds the caller's embed configurations.
type ListEmbedsResponse struct {
	Embeds []EmbedConfiguration `json:"embeds"`
}

// PreviewRequest is the body of a draft render request. Both parts stay raw
// until they have been validated. Records is optional; when absent the
// caller's stored testimonials are used.
type PreviewRequest struct {
	Config  json.RawMessage `json:"config"`
	Records json.RawMessage `json:"records,omitempty"`
}

// EmbedTypeInfo describes one embed type for configuration editors.
type EmbedTypeInfo struct {
	Type        EmbedType    `json:"type"`
	DisplayName string       `json:"displayName"`
	ComingSoon  bool         `json:"comingSoon"`
	Presets     []PresetInfo `json:"presets,omitempty"`
}

// PresetInfo describes one preset accepted by an embed type.
type PresetInfo struct {
	Preset      Preset `json:"preset"`
	DisplayName string `json:"displayName"`
}

// Catalogue returns the embed type catalogue with each type's valid presets.
func Catalogue() []EmbedTypeInfo {
	out := make([]EmbedTypeInfo, 0, len(EmbedTypes))
	for _, t := range EmbedTypes {
		info := EmbedTypeInfo{
			Type:        t,
			DisplayName: t.DisplayName(),
			ComingSoon:  t.ComingSoon(),
		}
		for _, p := range PresetsFor(t) {
			info.Presets = append(info.Presets, PresetInfo{Preset: p, DisplayName: p.DisplayName()})
		}
		out = append(out, info)
	}
	return out
}

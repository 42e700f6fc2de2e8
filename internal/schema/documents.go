package schema

import (
	"encoding/json"
	"fmt"

	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// Optional integers arrive as numbers or null.
func nullableInt(lo int, hi ...int) map[string]interface{} {
	s := map[string]interface{}{"type": []string{"integer", "null"}, "minimum": lo}
	if len(hi) > 0 {
		s["maximum"] = hi[0]
	}
	return s
}

func enum(values ...string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "enum": append(values, "")}
}

var (
	boolean     = map[string]interface{}{"type": []string{"boolean", "null"}}
	token       = map[string]interface{}{"type": "string", "maxLength": 32}
	stringArray = map[string]interface{}{"type": []string{"array", "null"}, "items": map[string]interface{}{"type": "string"}, "maxItems": 100}
)

// embedConfigurationSchema builds the configuration schema. The embed_type
// enum is generated from the model catalogue so both never drift apart.
// Style fields that do not apply to the chosen type are allowed and ignored.
func embedConfigurationSchema() (string, error) {
	types := make([]string, 0, len(model.EmbedTypes))
	for _, t := range model.EmbedTypes {
		types = append(types, string(t))
	}

	schema := map[string]interface{}{
		"type":     "object",
		"required": []string{"name", "embed_type"},
		"properties": map[string]interface{}{
			"id":         map[string]interface{}{"type": "string", "maxLength": 64},
			"name":       map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 120},
			"embed_type": map[string]interface{}{"type": "string", "enum": types},
			"is_active":  map[string]interface{}{"type": "boolean"},
			"filters": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"minRating": nullableInt(1, 5),
					"formIds":   stringArray,
					"tags":      stringArray,
					"status":    enum(model.StatusApproved),
					"limit":     nullableInt(1),
				},
			},
			"style_config": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"primaryColor":     token,
					"backgroundColor":  token,
					"textColor":        token,
					"borderRadius":     nullableInt(0),
					"spacing":          nullableInt(0),
					"showAvatar":       boolean,
					"showRating":       boolean,
					"showDate":         boolean,
					"columns":          nullableInt(1),
					"autoplay":         boolean,
					"speed":            enum(string(model.SpeedSlow), string(model.SpeedMedium), string(model.SpeedFast)),
					"direction":        enum(string(model.DirectionLeft), string(model.DirectionRight), string(model.DirectionUp), string(model.DirectionDown)),
					"pauseOnHover":     boolean,
					"playMode":         token,
					"showPlayButton":   boolean,
					"thumbnailQuality": token,
					"position":         enum("top-left", "top-right", "bottom-left", "bottom-right"),
					"size":             token,
					"layoutPreset":     map[string]interface{}{"type": "string", "maxLength": 64},
				},
			},
		},
	}

	b, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to build embed schema: %w", err)
	}
	return string(b), nil
}

const testimonialSchema = `{
	"type": "object",
	"required": ["authorName"],
	"properties": {
		"id": {"type": "string", "minLength": 1, "maxLength": 64},
		"message": {"type": "string", "maxLength": 5000},
		"rating": {"type": ["integer", "null"], "minimum": 1, "maximum": 5},
		"authorName": {"type": "string", "minLength": 1, "maxLength": 120},
		"authorCompany": {"type": "string", "maxLength": 120},
		"avatarUrl": {"type": "string", "maxLength": 2048},
		"imageUrl": {"type": "string", "maxLength": 2048},
		"videoUrl": {"type": "string", "maxLength": 2048},
		"createdAt": {"type": "string", "format": "date-time"},
		"formId": {"type": "string", "maxLength": 64},
		"tags": {"type": ["array", "null"], "items": {"type": "string"}},
		"status": {"type": "string", "enum": ["approved", ""]}
	}
}`

const uploadInitSchema = `{
	"type": "object",
	"required": ["mimeType", "size"],
	"properties": {
		"mimeType": {"type": "string", "minLength": 1},
		"size": {"type": "integer", "minimum": 1},
		"filename": {"type": "string", "maxLength": 255}
	}
}`

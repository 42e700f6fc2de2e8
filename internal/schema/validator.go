// internal/schema/validator.go
// Package schema validates embed configurations and testimonial payloads at
// the service boundary. A document is first checked against its JSON schema,
// then decoded and checked against the struct rules of the model.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/proofwall/proofwall-embed-go/internal/metrics"
	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// Documents with a registered schema.
const (
	DocumentEmbed        = "embed_configuration"
	DocumentTestimonial  = "testimonial"
	DocumentTestimonials = "testimonials"
	DocumentUploadInit   = "media_upload_init"
)

// SchemaVersion is the version of every schema in this package.
const SchemaVersion = "1.0.0"

// ValidationError lists every problem found in one document.
type ValidationError struct {
	Document string   `json:"document"`
	Problems []string `json:"problems"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s failed validation: %s", e.Document, strings.Join(e.Problems, "; "))
}

// UploadInit is the body of a media upload initialization request.
type UploadInit struct {
	MimeType string `json:"mimeType" validate:"required"`
	Size     int64  `json:"size" validate:"required,gt=0"`
	Filename string `json:"filename,omitempty" validate:"max=255"`
}

// Validator validates documents against JSON schemas and struct rules.
type Validator struct {
	schemas map[string]*gojsonschema.Schema // Map of document names to compiled schemas
	structs *validator.Validate
	metrics *metrics.Metrics
}

// NewValidator compiles all schemas and registers the custom struct rules.
func NewValidator() (*Validator, error) {
	v := &Validator{
		schemas: make(map[string]*gojsonschema.Schema),
		structs: validator.New(),
		metrics: metrics.NewMetrics(),
	}

	v.structs.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.structs.RegisterValidation("no_markup", validateNoMarkup); err != nil {
		return nil, fmt.Errorf("failed to register no_markup rule: %w", err)
	}

	if err := v.loadSchemas(); err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	return v, nil
}

func (v *Validator) loadSchemas() error {
	embedSchema, err := embedConfigurationSchema()
	if err != nil {
		return err
	}
	if err := v.loadSchema(DocumentEmbed, embedSchema); err != nil {
		return err
	}
	if err := v.loadSchema(DocumentTestimonial, testimonialSchema); err != nil {
		return err
	}
	testimonials := `{"type":"array","maxItems":500,"items":{"allOf":[` + testimonialSchema + `,{"required":["id"]}]}}`
	if err := v.loadSchema(DocumentTestimonials, testimonials); err != nil {
		return err
	}
	return v.loadSchema(DocumentUploadInit, uploadInitSchema)
}

// loadSchema compiles one schema.
func (v *Validator) loadSchema(document, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("invalid schema for %s: %w", document, err)
	}
	v.schemas[document] = schema
	return nil
}

// Validate checks raw against the schema of document.
func (v *Validator) Validate(document string, raw []byte) (err error) {
	defer func(start time.Time) { v.metrics.ObserveSchema(document, start, err) }(time.Now())

	schema, exists := v.schemas[document]
	if !exists {
		return fmt.Errorf("schema not found for document: %s", document)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationError{Document: document, Problems: []string{"body is not valid JSON"}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return &ValidationError{Document: document, Problems: problems}
	}
	return nil
}

// Struct checks the validate tags of s.
func (v *Validator) Struct(document string, s interface{}) error {
	err := v.structs.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("struct validation: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return &ValidationError{Document: document, Problems: problems}
}

// DecodeEmbed validates and decodes an embed configuration document. An
// omitted is_active means active. An invalid layout preset is accepted; it is
// ignored at render time.
func (v *Validator) DecodeEmbed(raw []byte) (model.EmbedConfiguration, error) {
	cfg := model.EmbedConfiguration{IsActive: true}
	if err := v.decode(DocumentEmbed, raw, &cfg); err != nil {
		return model.EmbedConfiguration{}, err
	}
	return cfg, nil
}

// DecodeTestimonial validates and decodes one testimonial. The id is optional.
func (v *Validator) DecodeTestimonial(raw []byte) (model.Testimonial, error) {
	var t model.Testimonial
	if err := v.decode(DocumentTestimonial, raw, &t); err != nil {
		return model.Testimonial{}, err
	}
	return t, nil
}

// DecodeTestimonials validates and decodes a list of testimonials. Every
// entry needs an id.
func (v *Validator) DecodeTestimonials(raw []byte) ([]model.Testimonial, error) {
	if err := v.Validate(DocumentTestimonials, raw); err != nil {
		return nil, err
	}
	var ts []model.Testimonial
	if err := json.Unmarshal(raw, &ts); err != nil {
		return nil, &ValidationError{Document: DocumentTestimonials, Problems: []string{err.Error()}}
	}
	var problems []string
	for i := range ts {
		if err := v.Struct(DocumentTestimonials, ts[i]); err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				return nil, err
			}
			for _, p := range ve.Problems {
				problems = append(problems, fmt.Sprintf("%d: %s", i, p))
			}
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Document: DocumentTestimonials, Problems: problems}
	}
	if ts == nil {
		ts = []model.Testimonial{}
	}
	return ts, nil
}

// DecodeUploadInit validates and decodes a media upload initialization request.
func (v *Validator) DecodeUploadInit(raw []byte) (UploadInit, error) {
	var req UploadInit
	if err := v.decode(DocumentUploadInit, raw, &req); err != nil {
		return UploadInit{}, err
	}
	return req, nil
}

func (v *Validator) decode(document string, raw []byte, out interface{}) error {
	if err := v.Validate(document, raw); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return &ValidationError{Document: document, Problems: []string{err.Error()}}
	}
	return v.Struct(document, out)
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "no_markup":
		return field + " must not contain markup"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

var markupPatterns = []string{"<script", "javascript:", "<iframe", "onerror=", "onload="}

// validateNoMarkup rejects text that would execute when placed on a host page.
func validateNoMarkup(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	for _, pattern := range markupPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

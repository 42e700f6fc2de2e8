package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/schema"
)

// isJSON reports whether path holds the wire format rather than YAML.
func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// toWire decodes a YAML document into out and re-encodes it as JSON, so YAML
// files pass the same validation as API requests.
func toWire(bs []byte, out interface{}) ([]byte, error) {
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// loadConfig reads an embed configuration from a JSON or YAML file.
func loadConfig(v *schema.Validator, path string) (model.EmbedConfiguration, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return model.EmbedConfiguration{}, fmt.Errorf("could not read config %q: %w", path, err)
	}
	if !isJSON(path) {
		cfg := model.EmbedConfiguration{IsActive: true}
		if bs, err = toWire(bs, &cfg); err != nil {
			return model.EmbedConfiguration{}, fmt.Errorf("invalid configuration YAML in %q: %w", path, err)
		}
	}
	cfg, err := v.DecodeEmbed(bs)
	if err != nil {
		return model.EmbedConfiguration{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// loadRecords reads a list of testimonials from a JSON or YAML file. An empty
// path yields no records.
func loadRecords(v *schema.Validator, path string) ([]model.Testimonial, error) {
	if path == "" {
		return []model.Testimonial{}, nil
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read records %q: %w", path, err)
	}
	if !isJSON(path) {
		var records []model.Testimonial
		if bs, err = toWire(bs, &records); err != nil {
			return nil, fmt.Errorf("invalid records YAML in %q: %w", path, err)
		}
		if bytes.Equal(bs, []byte("null")) {
			bs = []byte("[]")
		}
	}
	records, err := v.DecodeTestimonials(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofwall/proofwall-embed-go/internal/embed"
	"github.com/proofwall/proofwall-embed-go/internal/render"
	"github.com/proofwall/proofwall-embed-go/internal/viability"
)

const carouselYAML = `
name: Homepage
embed_type: carousel
filters:
  min_rating: 4
style_config:
  layout_preset: candy_carousel
  speed: fast
`

const recordsYAML = `
- id: a
  author_name: Ann
  rating: 5
  message: Great product
  created_at: 2024-01-02T00:00:00Z
- id: b
  author_name: Bob
  message: Fine
  video_url: https://cdn.example/b.mp4
  created_at: 2024-01-01T00:00:00Z
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderYAML(t *testing.T) {
	cfg := writeFile(t, "embed.yaml", carouselYAML)
	records := writeFile(t, "records.yaml", recordsYAML)

	out, err := run(t, "render", "--config", cfg, "--records", records)
	require.NoError(t, err)

	var res embed.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, render.StrategyID("carousel/candy_carousel"), res.Presentation.Strategy)
	assert.Equal(t, []string{"a", "b"}, res.Presentation.RecordIDs())
}

func TestRenderJSONWithoutRecords(t *testing.T) {
	cfg := writeFile(t, "embed.json", `{"name":"Badge","embed_type":"rating_badge_inline"}`)

	out, err := run(t, "render", "--config", cfg, "--compact")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)

	var res embed.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, render.KindEmpty, res.Presentation.Root.Kind)
	assert.True(t, viability.HasHard(res.Warnings))
}

func TestRenderRejectsInvalidConfig(t *testing.T) {
	cfg := writeFile(t, "embed.yaml", "name: x\nembed_type: hologram\n")
	_, err := run(t, "render", "--config", cfg)
	assert.ErrorContains(t, err, "embed_type must be one of the following")

	unknown := writeFile(t, "embed.yaml", "name: x\nembed_type: grid\ncolour: red\n")
	_, err = run(t, "render", "--config", unknown)
	assert.ErrorContains(t, err, "invalid configuration YAML")

	_, err = run(t, "render")
	assert.Error(t, err, "--config is required")
}

func TestCheck(t *testing.T) {
	cfg := writeFile(t, "embed.yaml", "name: Videos\nembed_type: video_wall\n")
	records := writeFile(t, "records.yaml", recordsYAML)

	out, err := run(t, "check", "--config", cfg, "--records", records)
	require.NoError(t, err)
	assert.Contains(t, out, "strategy: video_wall")
	assert.Contains(t, out, "soft:")

	empty := writeFile(t, "records.json", `[]`)
	_, err = run(t, "check", "--config", cfg, "--records", empty, "--strict")
	assert.ErrorContains(t, err, "hard warnings")
}

func TestSnippets(t *testing.T) {
	out, err := run(t, "snippets", "--id", "e42", "--base-url", "https://cdn.example/", "--format", "iframe")
	require.NoError(t, err)
	assert.Contains(t, out, `src="https://cdn.example/embed/e42"`)

	out, err = run(t, "snippets", "--format", "component")
	require.NoError(t, err)
	assert.Equal(t, "<ProofwallEmbed embedId=\"YOUR_EMBED_ID\" />\n", out)

	_, err = run(t, "snippets", "--format", "svg")
	assert.Error(t, err)
}

func TestTypes(t *testing.T) {
	out, err := run(t, "types")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 22)
	assert.Contains(t, out, "candy_carousel,mayen_carousel,loppa_carousel")
	assert.Contains(t, out, "coming soon")
}

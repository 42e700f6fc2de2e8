package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateIsDeterministic(t *testing.T) {
	e := NewEmitter("")
	assert.Equal(t, e.Generate("abc123"), e.Generate("abc123"))

	s := e.Generate("abc123")
	assert.Contains(t, s.Script, `data-embed-id="abc123"`)
	assert.Contains(t, s.IFrame, DefaultBaseURL+"/embed/abc123")
	assert.Contains(t, s.ComponentRef, `embedId="abc123"`)
}

func TestGeneratePlaceholder(t *testing.T) {
	s := NewEmitter("").Generate("")
	for _, snippet := range []string{s.Script, s.IFrame, s.ComponentRef} {
		assert.Contains(t, snippet, Placeholder)
	}
	assert.Equal(t, s, Emitter{}.Generate(""))
}

func TestCustomBaseURL(t *testing.T) {
	s := NewEmitter("https://cdn.example.com/").Generate("x")
	assert.True(t, strings.HasPrefix(s.Script, `<script src="https://cdn.example.com/widget.js"`))
	assert.Contains(t, s.IFrame, `src="https://cdn.example.com/embed/x"`)
}

func TestGenerateEscapesID(t *testing.T) {
	s := NewEmitter("").Generate(`x"><script>alert(1)</script>`)
	for _, snippet := range []string{s.Script, s.IFrame, s.ComponentRef} {
		assert.NotContains(t, snippet, "<script>alert")
		assert.NotContains(t, snippet, `x">`)
	}
	assert.Contains(t, s.Script, `data-embed-id="x&#34;&gt;&lt;script&gt;`)
}

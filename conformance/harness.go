// Package conformance provides a test harness that drives the embed service
// over real HTTP and checks the behavior every deployment must show.
package conformance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/proofwall/proofwall-embed-go/internal/jwks"
	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/server"
	"github.com/proofwall/proofwall-embed-go/internal/storage"
)

// Harness provides a test harness for embed service conformance testing.
type Harness struct {
	server    *httptest.Server
	store     storage.Store
	ownsStore bool
	jwks      *jwks.Client
	cfg       Config
}

// Config holds configuration for the conformance test harness.
type Config struct {
	// Store backs the service; nil uses in-memory storage. A caller-supplied
	// store is not closed by the harness.
	Store storage.Store

	// JWTIssuer is the expected JWT issuer
	JWTIssuer string

	// JWTAudience is the expected JWT audience
	JWTAudience string
}

// envelope is the response body of every /v1 endpoint.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code          string `json:"code"`
		Message       string `json:"message"`
		CorrelationID string `json:"correlationId"`
	} `json:"error"`
}

// NewHarness creates a new conformance test harness.
func NewHarness(cfg Config) (*Harness, error) {
	store, owns := cfg.Store, false
	if store == nil {
		store, owns = storage.NewMemory(), true
	}
	jwksClient := jwks.NewTestClient()

	mux, err := server.NewMux(server.Options{
		Store:            store,
		JWKS:             jwksClient,
		JWTIssuer:        cfg.JWTIssuer,
		JWTAudience:      cfg.JWTAudience,
		Env:              "conformance",
		MaxMediaSize:     10 * 1024 * 1024,
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "video/mp4"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mux: %w", err)
	}

	return &Harness{
		server:    httptest.NewServer(mux),
		store:     store,
		ownsStore: owns,
		jwks:      jwksClient,
		cfg:       cfg,
	}, nil
}

// URL returns the base URL of the test server.
func (h *Harness) URL() string {
	return h.server.URL
}

// Close shuts down the test server and cleans up resources.
func (h *Harness) Close() {
	h.server.Close()
	if h.ownsStore {
		h.store.Close()
	}
}

// Token issues an owner token accepted by the harness server.
func (h *Harness) Token(t *testing.T, owner string) string {
	t.Helper()
	tok, err := h.jwks.SignTestToken(owner, h.cfg.JWTIssuer, h.cfg.JWTAudience, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

// call sends one request. An empty token sends no Authorization header.
func (h *Harness) call(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(bs)
	}
	req, err := http.NewRequest(method, h.URL()+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", "conformance-"+strings.ReplaceAll(t.Name(), "/", "-"))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s returned a body that is not an envelope: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func decode(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

// RunConformanceTests runs all conformance tests against the embed service.
func (h *Harness) RunConformanceTests(t *testing.T) {
	t.Run("HealthEndpoints", h.testHealthEndpoints)
	t.Run("EmbedLifecycle", h.testEmbedLifecycle)
	t.Run("EveryEmbedTypeRenders", h.testEveryEmbedTypeRenders)
	t.Run("InvalidPresetFallsBack", h.testInvalidPresetFallsBack)
	t.Run("AuthCompliance", h.testAuthCompliance)
	t.Run("SchemaCompliance", h.testSchemaCompliance)
}

// testHealthEndpoints tests the health check endpoints.
func (h *Harness) testHealthEndpoints(t *testing.T) {
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(h.URL() + path)
		if err != nil {
			t.Fatalf("failed to GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", path, resp.StatusCode)
		}
	}
}

// testEmbedLifecycle ingests testimonials, saves an embed, renders it
// publicly and switches it off.
func (h *Harness) testEmbedLifecycle(t *testing.T) {
	owner := "lifecycle-owner"
	token := h.Token(t, owner)

	for i, rating := range []int{3, 5, 4} {
		status, _ := h.call(t, http.MethodPost, "/v1/testimonials", token, map[string]interface{}{
			"id":         fmt.Sprintf("lc-%d", i),
			"authorName": fmt.Sprintf("Author %d", i),
			"message":    "Works well",
			"rating":     rating,
			"createdAt":  time.Date(2024, 5, 1+i, 0, 0, 0, 0, time.UTC),
		})
		if status != http.StatusCreated {
			t.Fatalf("expected 201 creating testimonial, got %d", status)
		}
	}

	status, env := h.call(t, http.MethodPost, "/v1/embeds", token, map[string]interface{}{
		"name":       "Lifecycle",
		"embed_type": "grid",
		"filters":    map[string]interface{}{"minRating": 4},
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 saving embed, got %d", status)
	}
	var saved model.SaveEmbedResponse
	decode(t, env, &saved)
	if saved.Embed.ID == "" || !strings.Contains(saved.Snippets.Script, saved.Embed.ID) {
		t.Fatalf("saved embed has no id or snippet does not reference it: %+v", saved)
	}

	status, env = h.call(t, http.MethodGet, "/v1/embeds/"+saved.Embed.ID+"/render", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 rendering embed, got %d", status)
	}
	var rendered struct {
		Presentation struct {
			Strategy string `json:"strategy"`
			Root     struct {
				Children []struct {
					RecordID string `json:"recordId"`
				} `json:"children"`
			} `json:"root"`
		} `json:"presentation"`
		Warnings []interface{} `json:"warnings"`
	}
	decode(t, env, &rendered)
	var ids []string
	for _, c := range rendered.Presentation.Root.Children {
		ids = append(ids, c.RecordID)
	}
	if got, want := strings.Join(ids, ","), "lc-2,lc-1"; got != want {
		t.Errorf("expected records %s (rating >= 4, newest first), got %s", want, got)
	}
	if rendered.Warnings == nil {
		t.Errorf("warnings must be an empty list, not null")
	}

	status, _ = h.call(t, http.MethodPost, "/v1/embeds", token, map[string]interface{}{
		"id":         saved.Embed.ID,
		"name":       "Lifecycle",
		"embed_type": "grid",
		"is_active":  false,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 updating embed, got %d", status)
	}
	status, env = h.call(t, http.MethodGet, "/v1/embeds/"+saved.Embed.ID+"/render", "", nil)
	if status != http.StatusGone || env.Error == nil || env.Error.Code != "EMB_INACTIVE" {
		t.Errorf("expected EMB_INACTIVE for a deactivated embed, got %d", status)
	}
}

// testEveryEmbedTypeRenders saves and renders one embed of every type.
func (h *Harness) testEveryEmbedTypeRenders(t *testing.T) {
	owner := "catalogue-owner"
	token := h.Token(t, owner)
	status, _ := h.call(t, http.MethodPost, "/v1/testimonials", token, map[string]interface{}{
		"authorName": "Vera",
		"message":    "Great video",
		"rating":     5,
		"videoUrl":   "https://cdn.example/v.mp4",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 creating testimonial, got %d", status)
	}

	for _, et := range model.EmbedTypes {
		t.Run(string(et), func(t *testing.T) {
			status, env := h.call(t, http.MethodPost, "/v1/embeds", token, map[string]interface{}{
				"name":       string(et),
				"embed_type": string(et),
			})
			if status != http.StatusCreated {
				t.Fatalf("expected 201 saving %s, got %d", et, status)
			}
			var saved model.SaveEmbedResponse
			decode(t, env, &saved)

			status, env = h.call(t, http.MethodGet, "/v1/embeds/"+saved.Embed.ID+"/render", "", nil)
			if status != http.StatusOK {
				t.Fatalf("expected 200 rendering %s, got %d", et, status)
			}
			var res struct {
				Presentation struct {
					EmbedType string `json:"embedType"`
					Strategy  string `json:"strategy"`
				} `json:"presentation"`
			}
			decode(t, env, &res)
			if res.Presentation.EmbedType != string(et) || res.Presentation.Strategy != string(et) {
				t.Errorf("expected %s rendered by its default strategy, got %+v", et, res.Presentation)
			}
		})
	}
}

// testInvalidPresetFallsBack checks that a preset of another type is ignored.
func (h *Harness) testInvalidPresetFallsBack(t *testing.T) {
	token := h.Token(t, "preset-owner")
	status, env := h.call(t, http.MethodPost, "/v1/render/preview", token, map[string]interface{}{
		"config": map[string]interface{}{
			"name":         "Fallback",
			"embed_type":   "carousel",
			"style_config": map[string]interface{}{"layoutPreset": "social_star"},
		},
		"records": []map[string]interface{}{{"id": "p1", "authorName": "Pat"}},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 for preview, got %d", status)
	}
	var res struct {
		Presentation struct {
			Strategy string `json:"strategy"`
		} `json:"presentation"`
	}
	decode(t, env, &res)
	if res.Presentation.Strategy != "carousel" {
		t.Errorf("expected fallback to the carousel strategy, got %s", res.Presentation.Strategy)
	}
}

// testAuthCompliance checks which endpoints require an owner token.
func (h *Harness) testAuthCompliance(t *testing.T) {
	owner := []struct{ method, path string }{
		{http.MethodGet, "/v1/embeds"},
		{http.MethodPost, "/v1/embeds"},
		{http.MethodGet, "/v1/embeds/any"},
		{http.MethodPost, "/v1/render/preview"},
		{http.MethodPost, "/v1/testimonials"},
		{http.MethodPost, "/v1/media/uploadInit"},
	}
	for _, ep := range owner {
		status, env := h.call(t, ep.method, ep.path, "", nil)
		if status != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "EMB_AUTHN" {
			t.Errorf("%s %s without token: expected 401 EMB_AUTHN, got %d", ep.method, ep.path, status)
		}
		if env.Error != nil && env.Error.CorrelationID == "" {
			t.Errorf("%s %s: error without correlation id", ep.method, ep.path)
		}
	}

	public := []string{"/v1/embed-types", "/v1/embeds/unknown/render", "/v1/embeds/unknown/snippets"}
	for _, path := range public {
		status, _ := h.call(t, http.MethodGet, path, "", nil)
		if status == http.StatusUnauthorized {
			t.Errorf("GET %s must not require a token", path)
		}
	}
}

// testSchemaCompliance checks that invalid configurations are rejected with
// every problem listed.
func (h *Harness) testSchemaCompliance(t *testing.T) {
	token := h.Token(t, "schema-owner")
	rejects := []map[string]interface{}{
		{"embed_type": "grid"},
		{"name": "x", "embed_type": "hologram"},
		{"name": "x", "embed_type": "grid", "filters": map[string]interface{}{"minRating": 0}},
		{"name": "x", "embed_type": "grid", "filters": map[string]interface{}{"status": "pending"}},
		{"name": "x", "embed_type": "grid", "filters": map[string]interface{}{"limit": 0}},
	}
	for _, body := range rejects {
		status, env := h.call(t, http.MethodPost, "/v1/embeds", token, body)
		if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "EMB_SCHEMA_REJECT" {
			t.Errorf("expected 400 EMB_SCHEMA_REJECT for %v, got %d", body, status)
		}
	}
}

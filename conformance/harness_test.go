package conformance

import (
	"testing"
)

// TestConformance runs the full conformance test suite against in-memory storage.
func TestConformance(t *testing.T) {
	harness, err := NewHarness(Config{
		JWTIssuer:   "https://auth.proofwall.test",
		JWTAudience: "proofwall-embed",
	})
	if err != nil {
		t.Fatalf("failed to create harness: %v", err)
	}
	defer harness.Close()

	harness.RunConformanceTests(t)
}

package domain_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tanbirz/manchitra/internal/core/domain"
)

func TestParseStyleDocument(t *testing.T) {
	doc, err := domain.ParseStyleDocument([]byte(`{"version":8,"sprite":"x","layers":[]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc) != 3 {
		t.Errorf("expected 3 top-level keys, got %d", len(doc))
	}
	if string(doc["version"]) != "8" {
		t.Errorf("version passed through wrong: %s", doc["version"])
	}
}

func TestParseStyleDocumentMalformed(t *testing.T) {
	for _, body := range []string{"{not json", "", "[1,2,3]", `"just a string"`} {
		_, err := domain.ParseStyleDocument([]byte(body))
		if err == nil {
			t.Errorf("expected parse error for %q", body)
			continue
		}
		if !errors.Is(err, domain.ErrStyleParse) {
			t.Errorf("error for %q not classified as parse failure: %v", body, err)
		}
		if err.Error() == "" {
			t.Errorf("parse error for %q has empty message", body)
		}
	}
}

func TestStripSprite(t *testing.T) {
	doc, err := domain.ParseStyleDocument([]byte(`{"sprite":"https://example.com/sprite","layers":[{"id":"bg"}],"glyphs":"g"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !doc.StripSprite() {
		t.Error("expected StripSprite to report the key present")
	}
	if _, ok := doc["sprite"]; ok {
		t.Error("sprite key still present after strip")
	}

	// Everything else must survive unmodified.
	var layers []map[string]any
	if err := json.Unmarshal(doc["layers"], &layers); err != nil {
		t.Fatalf("layers corrupted: %v", err)
	}
	if len(layers) != 1 || layers[0]["id"] != "bg" {
		t.Errorf("layers changed by strip: %v", layers)
	}
	if string(doc["glyphs"]) != `"g"` {
		t.Errorf("glyphs changed by strip: %s", doc["glyphs"])
	}

	if doc.StripSprite() {
		t.Error("second strip must report the key absent")
	}
}

func TestStyleDocumentDigest(t *testing.T) {
	a, err := domain.ParseStyleDocument([]byte(`{"version":8,"name":"osm","layers":[{"id":"bg"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := domain.ParseStyleDocument([]byte(`{"layers":[{"id":"bg"}],"version":8,"name":"osm"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	da, err := a.Digest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	db, err := b.Digest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}

	if da != db {
		t.Errorf("top-level key order changed the digest: %s vs %s", da, db)
	}
	if len(da) != 64 {
		t.Errorf("digest should be 64 hex chars, got %d", len(da))
	}

	c, _ := domain.ParseStyleDocument([]byte(`{"version":8,"name":"osm-dark","layers":[{"id":"bg"}]}`))
	dc, err := c.Digest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if dc == da {
		t.Error("documents with different content share a digest")
	}
}

func TestStyleStatusErrorMessage(t *testing.T) {
	err := &domain.StyleStatusError{StatusCode: 401}
	if got := err.Error(); got != "HTTP error! status: 401" {
		t.Errorf("unexpected status error message: %q", got)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Error("status code missing from message")
	}
}

func TestStyleStateString(t *testing.T) {
	states := map[domain.StyleState]string{
		domain.StyleLoading: "loading",
		domain.StyleReady:   "ready",
		domain.StyleFailed:  "failed",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Errorf("state %d = %q, want %q", state, got, want)
		}
	}
	if got := domain.StyleState(42).String(); got != "unknown" {
		t.Errorf("out-of-range state = %q, want unknown", got)
	}
}

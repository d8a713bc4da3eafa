package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// spriteKey references an icon atlas that mobile map runtimes cannot
// resolve reliably, so the key is removed rather than rewritten.
const spriteKey = "sprite"

// StyleDocument is an opaque map style fetched from the provider. The
// schema is owned by the provider; only the optional sprite key is
// structurally known here.
type StyleDocument map[string]json.RawMessage

// ParseStyleDocument decodes a raw provider response body.
func ParseStyleDocument(data []byte) (StyleDocument, error) {
	var doc StyleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStyleParse, err)
	}
	return doc, nil
}

// StripSprite removes the sprite key from the in-memory document and
// reports whether it was present. All other keys pass through untouched.
func (d StyleDocument) StripSprite() bool {
	if _, ok := d[spriteKey]; !ok {
		return false
	}
	delete(d, spriteKey)
	return true
}

// Digest returns the hex sha256 of the document's JSON serialization.
// Top-level keys marshal in sorted order; nested values keep the
// provider's raw bytes, so an unchanged provider response digests
// identically across fetches.
func (d StyleDocument) Digest() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// StyleState is the lifecycle of a single style load request.
type StyleState int

const (
	StyleLoading StyleState = iota
	StyleReady
	StyleFailed
)

func (s StyleState) String() string {
	switch s {
	case StyleLoading:
		return "loading"
	case StyleReady:
		return "ready"
	case StyleFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrStyleLoad wraps transport failures while fetching a style.
var ErrStyleLoad = errors.New("failed to load map style")

// ErrStyleParse marks provider responses that are not valid JSON.
var ErrStyleParse = errors.New("failed to parse map style")

// StyleStatusError is a non-2xx provider response. The message keeps
// the exact wording map clients already display.
type StyleStatusError struct {
	StatusCode int
}

func (e *StyleStatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// StyleUpdate announces that the provider published a new revision of
// a watched style.
type StyleUpdate struct {
	StyleID    string    `json:"style_id"`
	Digest     string    `json:"digest"` // sha256 of the sanitized document
	ObservedAt time.Time `json:"observed_at"`
}

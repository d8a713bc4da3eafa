//go:build integration
// +build integration

package http_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/tanbirz/manchitra/internal/adapters/http"
	natsadapter "github.com/tanbirz/manchitra/internal/adapters/nats"
	"github.com/tanbirz/manchitra/internal/adapters/valkey"
	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/core/usecases"
)

const (
	natsURL    = "nats://localhost:4222"
	valkeyAddr = "localhost:6379"
)

// TestPositions_Integration_PublishAndRelay runs a position update
// through the HTTP handler against a real NATS server and asserts the
// event comes back out of the JetStream consumer.
func TestPositions_Integration_PublishAndRelay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	publisher, err := natsadapter.NewPublisher(natsURL)
	if err != nil {
		t.Skipf("nats not available: %v", err)
	}
	defer publisher.Close()

	subscriber, err := natsadapter.NewSubscriber(natsURL)
	if err != nil {
		t.Skipf("nats not available: %v", err)
	}
	defer subscriber.Close()

	received := make(chan *domain.PositionEvent, 8)
	err = subscriber.SubscribePositions(context.Background(), func(ctx context.Context, event *domain.PositionEvent) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe positions: %v", err)
	}

	repo := newCatalog(t)
	deps := &httpadapter.Dependencies{
		Places:   usecases.NewPlaceService(repo),
		Tracking: usecases.NewTrackingService(nil, publisher, 60),
		Catalog:  repo,
	}
	app := setupApp(deps)

	session := fmt.Sprintf("itest-%d", time.Now().UnixNano())
	body := fmt.Sprintf(`{"session_id":%q,"location":{"lng":90.39,"lat":23.75}}`, session)
	req := httptest.NewRequest("POST", "/v1/positions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-received:
			// The durable consumer may replay earlier runs first
			if event.SessionID != session {
				continue
			}
			if !event.WithinBounds {
				t.Error("Dhaka should be within bounds")
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for the relayed position event")
		}
	}
}

// TestStyleCache_Integration_Valkey verifies the style read-through
// cache against a real Valkey instance.
func TestStyleCache_Integration_Valkey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cache, err := valkey.New(valkeyAddr)
	if err != nil {
		t.Skipf("valkey not available: %v", err)
	}
	defer cache.Close()

	fetcher := &countingFetcher{}
	service := usecases.NewStyleService(fetcher, cache, 60)

	// Unique key per run so earlier cache entries cannot interfere
	apiKey := fmt.Sprintf("itest-%d", time.Now().UnixNano())

	for i := 0; i < 2; i++ {
		doc, err := service.Fetch(context.Background(), apiKey)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if _, ok := doc["sprite"]; ok {
			t.Error("sprite key should have been stripped")
		}
	}

	if fetcher.calls != 1 {
		t.Errorf("expected 1 provider fetch with a warm cache, got %d", fetcher.calls)
	}
}

type countingFetcher struct {
	calls int
}

func (f *countingFetcher) FetchStyle(ctx context.Context, apiKey string) (domain.StyleDocument, error) {
	f.calls++
	return domain.ParseStyleDocument([]byte(`{"version":8,"sprite":"https://example.com/sprite","layers":[]}`))
}

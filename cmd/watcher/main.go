// The watcher polls the style provider for each configured API key,
// sanitizes the document, and publishes a StyleUpdate event when its
// digest changes. Failed polls are retried on the next tick, never
// sooner.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	natsadapter "github.com/tanbirz/manchitra/internal/adapters/nats"
	"github.com/tanbirz/manchitra/internal/adapters/styleapi"
	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/core/ports"
	"github.com/tanbirz/manchitra/internal/core/usecases"
	"github.com/tanbirz/manchitra/internal/pkg/config"
	"github.com/tanbirz/manchitra/internal/pkg/logging"
	"github.com/tanbirz/manchitra/internal/pkg/metrics"
)

func main() {
	cfg, err := config.Load("manchitra-watcher")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.Logger("watcher")

	keys := cfg.Watcher.Keys
	if len(keys) == 0 && cfg.Style.APIKey != "" {
		keys = []string{cfg.Style.APIKey}
	}
	if len(keys) == 0 {
		log.Fatal("nothing to watch: set watcher.keys or style.api_key")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	// Style pipeline, uncached: every poll must see the provider.
	client := styleapi.New(
		cfg.Style.Endpoint,
		time.Duration(cfg.Style.TimeoutSeconds)*time.Second,
		cfg.Style.RateLimit,
		cfg.Style.RateBurst,
	)
	styles := usecases.NewStyleService(client, nil, 0)

	w := &watcher{
		styles:    styles,
		publisher: publisher,
		logger:    logger,
		digests:   make(map[string]string),
	}

	// Prometheus endpoint
	metricsApp := fiber.New(fiber.Config{DisableStartupMessage: true})
	metricsApp.Get("/metrics", metrics.Handler())
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := metricsApp.Listen(addr); err != nil {
			logger.Warn("metrics endpoint unavailable", "error", err)
		}
	}()
	defer func() { _ = metricsApp.Shutdown() }()

	interval := time.Duration(cfg.Watcher.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("style watcher starting", "keys", len(keys), "interval", interval.String())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run once immediately
	w.pollAll(ctx, keys)

	for {
		select {
		case <-ticker.C:
			w.pollAll(ctx, keys)
		case <-ctx.Done():
			return
		case sig := <-quit:
			logger.Info("shutting down style watcher", "signal", sig.String())
			cancel()
			// Give in-flight polls time to finish
			time.Sleep(2 * time.Second)
			return
		}
	}
}

// watcher remembers the last digest seen per key and publishes when it
// moves. The first observation of a key is a baseline, not a change.
type watcher struct {
	styles    *usecases.StyleService
	publisher ports.EventPublisher
	logger    *slog.Logger

	mu      sync.Mutex
	digests map[string]string
}

func (w *watcher) pollAll(ctx context.Context, keys []string) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent provider fetches

	for _, key := range keys {
		wg.Add(1)
		go func(apiKey string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := w.pollKey(ctx, apiKey); err != nil {
				w.logger.Error("poll failed", "style_id", styleID(apiKey), "error", err)
			}
		}(key)
	}

	wg.Wait()
}

func (w *watcher) pollKey(ctx context.Context, apiKey string) error {
	doc, err := w.styles.Fetch(ctx, apiKey)
	if err != nil {
		return err
	}

	digest, err := doc.Digest()
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}

	id := styleID(apiKey)

	w.mu.Lock()
	prev, seen := w.digests[id]
	w.digests[id] = digest
	w.mu.Unlock()

	if !seen {
		w.logger.Info("style baseline recorded", "style_id", id, "digest", digest[:12])
		return nil
	}
	if prev == digest {
		return nil
	}

	metrics.StyleUpdatesDetected.Inc()
	w.logger.Info("style update detected", "style_id", id, "digest", digest[:12])

	update := &domain.StyleUpdate{
		StyleID:    id,
		Digest:     digest,
		ObservedAt: time.Now().UTC(),
	}
	if err := w.publisher.PublishStyleUpdate(ctx, update); err != nil {
		return fmt.Errorf("publish update: %w", err)
	}
	return nil
}

// styleID identifies a watched key in logs and events without ever
// exposing the key itself.
func styleID(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:6])
}

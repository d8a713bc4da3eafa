package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/tanbirz/manchitra/internal/adapters/catalog"
	"github.com/tanbirz/manchitra/internal/adapters/http"
	"github.com/tanbirz/manchitra/internal/adapters/memcache"
	natsadapter "github.com/tanbirz/manchitra/internal/adapters/nats"
	"github.com/tanbirz/manchitra/internal/adapters/styleapi"
	"github.com/tanbirz/manchitra/internal/adapters/valkey"
	"github.com/tanbirz/manchitra/internal/core/ports"
	"github.com/tanbirz/manchitra/internal/core/usecases"
	"github.com/tanbirz/manchitra/internal/pkg/config"
	"github.com/tanbirz/manchitra/internal/pkg/logging"
	"github.com/tanbirz/manchitra/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("manchitra-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Embedded catalog
	places, err := catalog.New()
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	slog.Info("catalog loaded", "places", places.Count())

	// Cache backend
	var (
		cache  ports.CacheService
		pinger http.Pinger
	)
	switch cfg.Cache.Backend {
	case "valkey":
		vc, err := valkey.New(cfg.Cache.ValkeyAddr)
		if err != nil {
			slog.Warn("valkey unavailable, running uncached", "error", err)
		} else {
			defer vc.Close()
			cache, pinger = vc, vc
		}
	case "memory":
		// One shared TTL; the expirable LRU cannot vary it per entry.
		ttl := cfg.Style.CacheTTL
		if cfg.Tracking.SessionTTL > ttl {
			ttl = cfg.Tracking.SessionTTL
		}
		mc := memcache.New(cfg.Cache.MemorySize, time.Duration(ttl)*time.Second)
		cache, pinger = mc, mc
	}

	// NATS
	var (
		publisher ports.EventPublisher
		natsConn  *nats.Conn
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, live events disabled", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		// Raw connection for the WebSocket relay
		conn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			natsConn = conn
		}
	}

	// Style provider client
	styleClient := styleapi.New(
		cfg.Style.Endpoint,
		time.Duration(cfg.Style.TimeoutSeconds)*time.Second,
		cfg.Style.RateLimit,
		cfg.Style.RateBurst,
	)

	// Use cases
	styleSvc := usecases.NewStyleService(styleClient, cache, cfg.Style.CacheTTL)
	placeSvc := usecases.NewPlaceService(places)
	trackingSvc := usecases.NewTrackingService(cache, publisher, cfg.Tracking.SessionTTL)

	deps := &http.Dependencies{
		Style:    styleSvc,
		Places:   placeSvc,
		Tracking: trackingSvc,
		Catalog:  places,
		NATS:     natsConn,
		Cache:    pinger,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Manchitra API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.manchitra.app",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

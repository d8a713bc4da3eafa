package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/tanbirz/manchitra/internal/adapters/catalog"
	"github.com/tanbirz/manchitra/internal/core/usecases"
)

// Pinger probes a dependency for reachability. Both cache backends
// implement it; readiness tolerates a nil Pinger (backend disabled).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Style    *usecases.StyleService
	Places   *usecases.PlaceService
	Tracking *usecases.TrackingService
	Catalog  *catalog.Repository
	NATS     *nats.Conn
	Cache    Pinger
}

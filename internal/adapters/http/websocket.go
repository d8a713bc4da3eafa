package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/pkg/metrics"
)

// wsMessage is sent by clients to manage subscriptions or submit a
// position update over the socket.
type wsMessage struct {
	Action   string                 `json:"action"`             // "subscribe" | "unsubscribe" | "position"
	Channel  string                 `json:"channel"`            // "positions" | "styles" (default: positions)
	Session  string                 `json:"session"`            // session filter (optional, "" = all)
	Position *domain.PositionUpdate `json:"position,omitempty"` // payload for action "position"
}

// WebSocketHandler returns a handler that upgrades to WebSocket and
// relays live NATS events to connected clients. Clients send JSON:
// {"action":"subscribe","channel":"positions","session":"trip-42"}.
// An empty session means all sessions. Clients may also push their own
// samples: {"action":"position","position":{...}}; the enriched event
// is written back and broadcast to every positions subscriber.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		clientID := uuid.NewString()
		slog.Info("ws client connected", "client_id", clientID, "remote", c.RemoteAddr().String())
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Auto-subscribe to all position events and style updates
		if deps.NATS != nil {
			for _, subject := range []string{"live.positions.>", "style.events.updated"} {
				sub, err := deps.NATS.Subscribe(subject, func(msg *nats.Msg) {
					_ = writeJSON(json.RawMessage(msg.Data))
				})
				if err != nil {
					slog.Error("ws default subscribe failed", "client_id", clientID, "subject", subject, "error", err)
					return
				}
				subs[subject] = sub
			}
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			if m.Action == "position" {
				handleClientPosition(deps, writeJSON, m.Position)
				continue
			}

			// Build NATS subject for subscription management
			channel := m.Channel
			if channel == "" {
				channel = "positions"
			}

			var subject string
			switch channel {
			case "positions":
				if m.Session != "" {
					subject = "live.positions." + m.Session
				} else {
					subject = "live.positions.>"
				}
			case "styles":
				subject = "style.events.updated"
			default:
				_ = writeJSON(map[string]string{"error": "unknown channel: " + channel})
				continue
			}

			if deps.NATS == nil {
				_ = writeJSON(map[string]string{"error": "live relay unavailable"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := deps.NATS.Subscribe(subject, func(msg *nats.Msg) {
					_ = writeJSON(json.RawMessage(msg.Data))
				})
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "client_id", clientID)
	}
}

// handleClientPosition runs a socket-submitted sample through the
// tracking pipeline and writes back the enriched event or the error.
func handleClientPosition(deps *Dependencies, writeJSON func(interface{}) error, update *domain.PositionUpdate) {
	if update == nil {
		_ = writeJSON(map[string]string{"error": "position payload is required"})
		return
	}

	event, err := deps.Tracking.Record(context.Background(), *update)
	if err != nil {
		metrics.PositionUpdates.WithLabelValues("rejected").Inc()
		_ = writeJSON(map[string]string{"error": err.Error()})
		return
	}

	metrics.PositionUpdates.WithLabelValues("accepted").Inc()
	_ = writeJSON(event)
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based
// on endpoint. Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.GetRespHeader("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0"

		case strings.HasPrefix(path, "/v1/style"):
			ttl = "public, max-age=300" // Provider styles change rarely

		case strings.HasPrefix(path, "/v1/geometry/"):
			ttl = "public, max-age=3600" // Pure functions of the query string

		case strings.HasPrefix(path, "/v1/places/nearby"):
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/v1/places/search"):
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/v1/places"):
			ttl = "public, max-age=3600" // The catalog ships with the binary

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300" // Default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}

package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute describes a legacy endpoint scheduled for removal.
type DeprecatedRoute struct {
	SunsetDate  time.Time // Date when the endpoint will be removed
	Alternative string    // Successor endpoint (optional)
}

// Deprecation returns a middleware that stamps RFC 8594 Deprecation and
// Sunset headers, plus a successor Link, on a legacy endpoint. Register
// it directly on the route being retired.
func Deprecation(d DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Deprecation", "true")
		c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))

		if d.Alternative != "" {
			c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
		}

		days := time.Until(d.SunsetDate).Hours() / 24
		c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))

		return c.Next()
	}
}

package http

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/pkg/geospatial"
	"github.com/tanbirz/manchitra/internal/pkg/metrics"
)

// StyleHandler runs the style pipeline: fetch from the provider,
// sanitize, return the document. The key query parameter is forwarded
// to the provider; upstream failures surface as 502.
func StyleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Query("key")
		if key == "" {
			return errBadRequest(c, "key query parameter is required")
		}

		doc, err := deps.Style.Fetch(c.Context(), key)
		if err != nil {
			return mapDomainError(c, err)
		}

		return c.JSON(doc)
	}
}

// CircleGeometryHandler returns a GeoJSON polygon approximating a
// circle around a center point. The sampling is planar, matching what
// the drawing screens render.
func CircleGeometryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := queryCoordinate(c, "lat", "lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if !center.Valid() {
			return errBadRequest(c, "center out of range")
		}

		radiusKm, err := queryFloat(c, "radius_km")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		segments := c.QueryInt("segments", geospatial.DefaultCircleSegments)

		ring, err := geospatial.CircleRing(center, radiusKm, segments)
		if err != nil {
			return mapDomainError(c, err)
		}

		feature := geojson.NewFeature(orb.Polygon{ringToOrb(ring)})
		feature.Properties = geojson.Properties{
			"radius_km": radiusKm,
			"segments":  segments,
			"center":    []float64{center.Lng, center.Lat},
		}
		return c.JSON(feature)
	}
}

// DistanceHandler returns the great-circle distance between two points.
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := queryCoordinate(c, "from_lat", "from_lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := queryCoordinate(c, "to_lat", "to_lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if !from.Valid() || !to.Valid() {
			return errBadRequest(c, "coordinates out of range")
		}

		return c.JSON(fiber.Map{
			"kilometers": geospatial.HaversineKm(from, to),
		})
	}
}

// WithinHandler reports containment against the Bangladesh bounds.
// Out-of-range and non-finite points are simply outside, never errors.
func WithinHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		point, err := queryCoordinate(c, "lat", "lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		return c.JSON(fiber.Map{
			"within": domain.BangladeshBounds.Contains(point),
			"bounds": domain.BangladeshBounds,
		})
	}
}

// LineHandler returns a GeoJSON line between two points with its
// distance, the draw-a-line screen's data.
func LineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := queryCoordinate(c, "from_lat", "from_lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := queryCoordinate(c, "to_lat", "to_lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if !from.Valid() || !to.Valid() {
			return errBadRequest(c, "coordinates out of range")
		}

		feature := geojson.NewFeature(orb.LineString{
			{from.Lng, from.Lat},
			{to.Lng, to.Lat},
		})
		feature.Properties = geojson.Properties{
			"distance_km": geospatial.HaversineKm(from, to),
		}
		return c.JSON(feature)
	}
}

// ListPlacesHandler returns the marker catalog, paginated.
func ListPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		places, err := deps.Places.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		// Apply offset/limit pagination on the full list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		total := len(places)
		if offset >= total {
			places = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			places = places[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: places, Pagination: pg})
	}
}

// NearbyPlacesHandler returns catalog places within a radius of a
// point, closest first, each with its distance.
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := queryCoordinate(c, "lat", "lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radiusKm := c.QueryFloat("radius_km", 5)
		limit := c.QueryInt("limit", 20)

		places, err := deps.Places.FindNearby(c.Context(), center, radiusKm, limit)
		if err != nil {
			return mapDomainError(c, err)
		}

		return c.JSON(places)
	}
}

// SearchPlacesHandler performs a case-insensitive name match on the catalog.
func SearchPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 20)

		places, err := deps.Places.Search(c.Context(), query, limit)
		if err != nil {
			return mapDomainError(c, err)
		}

		return c.JSON(places)
	}
}

// GetPlaceHandler returns a single place by ID.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "place id is required")
		}
		place, err := deps.Places.GetByID(c.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "place not found")
			}
			return mapDomainError(c, err)
		}
		return c.JSON(place)
	}
}

// PositionsHandler ingests a tracking sample, enriches it against the
// session's previous fix, and publishes it for live consumers.
func PositionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var update domain.PositionUpdate
		if err := c.BodyParser(&update); err != nil {
			metrics.PositionUpdates.WithLabelValues("rejected").Inc()
			return errBadRequest(c, "invalid request body")
		}

		event, err := deps.Tracking.Record(c.Context(), update)
		if err != nil {
			metrics.PositionUpdates.WithLabelValues("rejected").Inc()
			return mapDomainError(c, err)
		}

		metrics.PositionUpdates.WithLabelValues("accepted").Inc()
		return c.Status(202).JSON(event)
	}
}

// queryFloat parses a required float query parameter.
func queryFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s query parameter is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

// queryCoordinate parses a lat/lng query parameter pair.
func queryCoordinate(c *fiber.Ctx, latName, lngName string) (domain.Coordinate, error) {
	lat, err := queryFloat(c, latName)
	if err != nil {
		return domain.Coordinate{}, err
	}
	lng, err := queryFloat(c, lngName)
	if err != nil {
		return domain.Coordinate{}, err
	}
	return domain.Coordinate{Lng: lng, Lat: lat}, nil
}

// ringToOrb converts a domain ring for GeoJSON encoding.
func ringToOrb(ring domain.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(ring))
	for _, p := range ring {
		out = append(out, orb.Point{p.Lng, p.Lat})
	}
	return out
}

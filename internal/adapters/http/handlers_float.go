package http

import (
	"github.com/gofiber/fiber/v2"
)

// CatalogStats holds statistics about the ingested float catalog.
type CatalogStats struct {
	Floats     int    `json:"floats"`
	Regions    int    `json:"regions"`
	LastIngest string `json:"last_ingest,omitempty"`
}

// CatalogStatsHandler returns row counts from the float table.
func CatalogStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats CatalogStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM argo_floats),
				(SELECT count(DISTINCT region) FROM argo_floats),
				COALESCE((SELECT max(created_at)::text FROM argo_floats), '')
		`)
		if err := row.Scan(&stats.Floats, &stats.Regions, &stats.LastIngest); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// ListFloatsHandler returns the catalog with offset/limit pagination.
func ListFloatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		floats, err := deps.Floats.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		total := len(floats)
		if offset >= total {
			floats = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			floats = floats[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: floats, Pagination: pg})
	}
}

// FloatMarkersHandler returns projected globe markers for the whole
// catalog. The radius query selects the marker shell.
func FloatMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		radius := c.QueryFloat("radius", 0)
		if radius < 0 || radius > 1e6 {
			return errBadRequest(c, "radius must be a small positive number")
		}

		markers, err := deps.Floats.Markers(c.Context(), radius)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(fiber.Map{
			"markers": markers,
			"count":   len(markers),
		})
	}
}

// NearbyFloatsHandler returns floats within a radius of a point.
func NearbyFloatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 500000)
		limit := c.QueryInt("limit", 50)

		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "lat/lon out of range")
		}
		if radius <= 0 || radius > 5000000 {
			return errBadRequest(c, "radius must be between 1 and 5000000 meters")
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		floats, err := deps.Floats.FindNearby(c.Context(), lat, lon, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(floats)
	}
}

// GetFloatHandler returns a single float by ID.
func GetFloatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "float id is required")
		}
		f, err := deps.Floats.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "float not found")
		}
		return c.JSON(f)
	}
}

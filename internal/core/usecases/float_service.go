package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oceanpulse/argochat/internal/core/domain"
	"github.com/oceanpulse/argochat/internal/core/ports"
	"github.com/oceanpulse/argochat/internal/pkg/projection"
)

// DefaultMarkerRadius is the sphere shell the globe renders markers on,
// slightly above the unit-2 earth mesh.
const DefaultMarkerRadius = 2.15

// Marker is a float projected onto the globe.
type Marker struct {
	FloatID      string          `json:"float_id"`
	PlatformCode string          `json:"platform_code"`
	Region       string          `json:"region"`
	Position     projection.Vec3 `json:"position"`
}

// FloatService handles float-catalog business logic.
type FloatService struct {
	floats ports.FloatRepository
	cache  ports.CacheService
}

// NewFloatService creates a new FloatService.
func NewFloatService(floats ports.FloatRepository, cache ports.CacheService) *FloatService {
	return &FloatService{floats: floats, cache: cache}
}

// List returns the full catalog, cached briefly.
func (s *FloatService) List(ctx context.Context) ([]domain.Float, error) {
	const cacheKey = "floats:all"
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var floats []domain.Float
			if err := json.Unmarshal(data, &floats); err == nil {
				return floats, nil
			}
		}
	}

	floats, err := s.floats.List(ctx)
	if err != nil {
		return nil, err
	}

	// Cache for 5 minutes (positions refresh on a 10-day cycle)
	if s.cache != nil {
		if data, err := json.Marshal(floats); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}
	return floats, nil
}

// GetByID returns a single float.
func (s *FloatService) GetByID(ctx context.Context, id string) (*domain.Float, error) {
	cacheKey := "floats:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var f domain.Float
			if err := json.Unmarshal(data, &f); err == nil {
				return &f, nil
			}
		}
	}

	f, err := s.floats.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(f); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}
	return f, nil
}

// FindNearby returns floats within radiusMeters of the given point.
func (s *FloatService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Float, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	cacheKey := fmt.Sprintf("floats:nearby:%.4f:%.4f:%.0f:%d", lat, lon, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var floats []domain.Float
			if err := json.Unmarshal(data, &floats); err == nil {
				return floats, nil
			}
		}
	}

	floats, err := s.floats.FindNearby(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(floats); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}
	return floats, nil
}

// Markers projects the catalog onto a sphere of the given radius for
// globe rendering. Floats with non-finite stored coordinates are
// skipped, never an error.
func (s *FloatService) Markers(ctx context.Context, radius float64) ([]Marker, error) {
	if radius <= 0 {
		radius = DefaultMarkerRadius
	}

	floats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	markers := make([]Marker, 0, len(floats))
	for _, f := range floats {
		if !projection.Finite(f.Location.Lat) || !projection.Finite(f.Location.Lon) {
			continue
		}
		markers = append(markers, Marker{
			FloatID:      f.ID,
			PlatformCode: f.PlatformCode,
			Region:       f.Region,
			Position:     projection.Project(f.Location.Lat, f.Location.Lon, radius),
		})
	}
	return markers, nil
}

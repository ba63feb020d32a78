package ports

import (
	"context"

	"github.com/oceanpulse/argochat/internal/core/domain"
)

// FloatRepository persists the ARGO float catalog.
type FloatRepository interface {
	Upsert(ctx context.Context, f *domain.Float) error
	UpsertBatch(ctx context.Context, floats []domain.Float) error
	GetByID(ctx context.Context, id string) (*domain.Float, error)
	List(ctx context.Context) ([]domain.Float, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Float, error)
}

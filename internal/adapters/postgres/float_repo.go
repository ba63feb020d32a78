package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/oceanpulse/argochat/internal/core/domain"
)

// FloatRepo implements ports.FloatRepository with pgx.
type FloatRepo struct {
	db *DB
}

// NewFloatRepo creates a new FloatRepo.
func NewFloatRepo(db *DB) *FloatRepo {
	return &FloatRepo{db: db}
}

// Upsert inserts or updates a single float by platform code.
func (r *FloatRepo) Upsert(ctx context.Context, f *domain.Float) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO argo_floats (platform_code, location, region, status, max_depth_m, deployed_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4, $5, $6, $7)
		ON CONFLICT (platform_code) DO UPDATE
		SET location = EXCLUDED.location, region = EXCLUDED.region,
		    status = EXCLUDED.status, max_depth_m = EXCLUDED.max_depth_m,
		    deployed_at = EXCLUDED.deployed_at
	`, f.PlatformCode, f.Location.Lon, f.Location.Lat,
		f.Region, f.Status, f.MaxDepthM, f.DeployedAt)
	return err
}

// UpsertBatch inserts many floats using pgx.Batch.
func (r *FloatRepo) UpsertBatch(ctx context.Context, floats []domain.Float) error {
	batch := &pgx.Batch{}
	for _, f := range floats {
		batch.Queue(`
			INSERT INTO argo_floats (platform_code, location, region, status, max_depth_m, deployed_at)
			VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4, $5, $6, $7)
			ON CONFLICT (platform_code) DO UPDATE
			SET location = EXCLUDED.location, region = EXCLUDED.region
		`, f.PlatformCode, f.Location.Lon, f.Location.Lat,
			f.Region, f.Status, f.MaxDepthM, f.DeployedAt)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range floats {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a float by UUID.
func (r *FloatRepo) GetByID(ctx context.Context, id string) (*domain.Float, error) {
	var f domain.Float
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, platform_code,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(region, ''), status, max_depth_m, deployed_at, created_at
		FROM argo_floats WHERE id = $1
	`, id).Scan(
		&f.ID, &f.PlatformCode,
		&f.Location.Lat, &f.Location.Lon,
		&f.Region, &f.Status, &f.MaxDepthM, &f.DeployedAt, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// List returns the full catalog ordered by region.
func (r *FloatRepo) List(ctx context.Context) ([]domain.Float, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, platform_code,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(region, ''), status, max_depth_m, deployed_at, created_at
		FROM argo_floats
		ORDER BY region, platform_code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var floats []domain.Float
	for rows.Next() {
		var f domain.Float
		if err := rows.Scan(
			&f.ID, &f.PlatformCode,
			&f.Location.Lat, &f.Location.Lon,
			&f.Region, &f.Status, &f.MaxDepthM, &f.DeployedAt, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		floats = append(floats, f)
	}
	return floats, rows.Err()
}

// FindNearby returns floats within radiusMeters using PostGIS ST_DWithin.
func (r *FloatRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Float, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, platform_code,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(region, ''), status, max_depth_m, deployed_at,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance,
		       created_at
		FROM argo_floats
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var floats []domain.Float
	for rows.Next() {
		var f domain.Float
		var dist float64
		if err := rows.Scan(
			&f.ID, &f.PlatformCode,
			&f.Location.Lat, &f.Location.Lon,
			&f.Region, &f.Status, &f.MaxDepthM, &f.DeployedAt,
			&dist, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		f.Distance = &dist
		floats = append(floats, f)
	}
	return floats, rows.Err()
}

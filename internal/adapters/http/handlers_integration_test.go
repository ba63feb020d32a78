//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oceanpulse/argochat/internal/adapters/http"
	"github.com/oceanpulse/argochat/internal/adapters/memstore"
	"github.com/oceanpulse/argochat/internal/adapters/postgres"
	"github.com/oceanpulse/argochat/internal/core/domain"
	"github.com/oceanpulse/argochat/internal/core/usecases"
	"github.com/oceanpulse/argochat/internal/pkg/config"
)

// setupTestDB connects to the test database and returns a clean DB instance.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("argochat-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	dsn := cfg.Database.DSN()
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	db := &postgres.DB{Pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return db
}

// setupTestDeps creates dependencies with a real float repo, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	ctx := context.Background()
	store := memstore.New()
	chat := usecases.NewChatService(ctx, store, &mockCompleter{})
	auth := usecases.NewAuthService(ctx, store, chat)

	return &http.Dependencies{
		Auth:     auth,
		Chat:     chat,
		Floats:   usecases.NewFloatService(postgres.NewFloatRepo(db), nil),
		Settings: usecases.NewSettingsService(store),
		Uploads:  usecases.NewUploadService(store),
		Store:    store,
		DB:       db,
	}
}

// seedTestFloat inserts a float and returns its UUID.
func seedTestFloat(t *testing.T, db *postgres.DB, platformCode, region string, lat, lon float64) string {
	ctx := context.Background()
	var id string
	if err := db.Pool.QueryRow(ctx, `
		INSERT INTO argo_floats (platform_code, location, region, status, max_depth_m, deployed_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4, 'active', 2000, now())
		ON CONFLICT (platform_code) DO UPDATE SET region = EXCLUDED.region
		RETURNING id
	`, platformCode, lon, lat, region).Scan(&id); err != nil {
		t.Fatalf("seed float: %v", err)
	}
	return id
}

// TestListFloats_Integration_WithRealDB tests catalog listing against a real database.
func TestListFloats_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	seedTestFloat(t, db, "test-5904321", "North Atlantic", 35.2, -42.8)
	seedTestFloat(t, db, "test-2902746", "Indian Ocean", -12.5, 67.3)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/floats", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Float      `json:"data"`
		Pagination struct{ Total int } `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if result.Pagination.Total < 2 {
		t.Errorf("expected at least 2 floats, got %d", result.Pagination.Total)
	}
}

// TestGetFloat_Integration tests float lookup against a real database.
func TestGetFloat_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	code := "test-" + time.Now().Format("20060102150405")
	id := seedTestFloat(t, db, code, "Southern Ocean", -55.1, 140.7)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/floats/"+id, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var f domain.Float
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if f.PlatformCode != code {
		t.Errorf("expected platform code %s, got %s", code, f.PlatformCode)
	}
}

// TestNearbyFloats_Integration tests the geospatial query against a real database.
func TestNearbyFloats_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	// Azores region: 37.74, -25.67
	seedTestFloat(t, db, "test-spatial-1", "North Atlantic", 37.74, -25.67)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/floats/nearby?lat=37.74&lon=-25.67&radius=50000", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var floats []domain.Float
	if err := json.NewDecoder(resp.Body).Decode(&floats); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(floats) == 0 {
		t.Error("expected at least 1 nearby float, got 0")
	}
}

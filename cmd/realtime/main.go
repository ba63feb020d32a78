package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/oceanpulse/argochat/internal/adapters/nats"
	"github.com/oceanpulse/argochat/internal/adapters/postgres"
	"github.com/oceanpulse/argochat/internal/pkg/config"
)

// Drift parameters. Real floats surface roughly every 10 days; the demo
// compresses that to a tick so the globe visibly moves.
const (
	pollInterval = 30 * time.Second
	maxDriftDeg  = 0.05
)

func main() {
	cfg, err := config.Load("argochat-realtime")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	repo := postgres.NewFloatRepo(db)

	// NATS
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	log.Printf("ArgoChat drift updater — ticking every %s", pollInterval)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// Signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run once immediately
	tick(ctx, repo, pub)

	for {
		select {
		case <-ticker.C:
			tick(ctx, repo, pub)
		case <-ctx.Done():
			return
		case sig := <-quit:
			log.Printf("received signal %v, shutting down drift updater", sig)
			cancel()
			// Give the in-flight tick time to finish
			time.Sleep(2 * time.Second)
			return
		}
	}
}

// tick drifts every active float a little and republishes it.
func tick(ctx context.Context, repo *postgres.FloatRepo, pub *natsadapter.Publisher) {
	floats, err := repo.List(ctx)
	if err != nil {
		log.Printf("list floats: %v", err)
		return
	}

	moved := 0
	for i := range floats {
		f := &floats[i]
		if f.Status != "active" {
			continue
		}

		f.Location.Lat = clampLat(f.Location.Lat + (rand.Float64()-0.5)*2*maxDriftDeg)
		f.Location.Lon = wrapLon(f.Location.Lon + (rand.Float64()-0.5)*2*maxDriftDeg)

		if err := repo.Upsert(ctx, f); err != nil {
			log.Printf("upsert %s: %v", f.PlatformCode, err)
			continue
		}
		if err := pub.PublishFloatPosition(ctx, f); err != nil {
			log.Printf("publish %s: %v", f.PlatformCode, err)
			continue
		}
		moved++
	}

	if moved > 0 {
		summary, _ := json.Marshal(map[string]any{
			"event":  "drift",
			"floats": moved,
			"at":     time.Now().UTC().Format(time.RFC3339),
		})
		_ = pub.PublishBroadcast(ctx, summary)
		log.Printf("drifted %d floats", moved)
	}
}

func clampLat(lat float64) float64 {
	if lat > 89.5 {
		return 89.5
	}
	if lat < -89.5 {
		return -89.5
	}
	return lat
}

func wrapLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

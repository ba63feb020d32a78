package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	natsadapter "github.com/oceanpulse/argochat/internal/adapters/nats"
	"github.com/oceanpulse/argochat/internal/adapters/postgres"
	"github.com/oceanpulse/argochat/internal/core/domain"
	"github.com/oceanpulse/argochat/internal/pkg/config"
	"github.com/oceanpulse/argochat/internal/pkg/metrics"
	"github.com/oceanpulse/argochat/internal/pkg/projection"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source   string         `json:"source"`
	Datasets []DatasetEntry `json:"datasets"`
}

type DatasetEntry struct {
	Name   string `json:"name"`
	Region string `json:"region"` // default region when the CSV has no ocean column
	URL    string `json:"url"`    // http(s) URL or local file path
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("argochat-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	repo := postgres.NewFloatRepo(db)

	// NATS is optional for an ingest run; publishing just lets the API
	// drop its catalog cache.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Printf("nats unavailable, skipping publishes: %v", err)
		pub = nil
	} else {
		defer pub.Close()
	}

	// Load manifest
	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("ArgoChat float ingestor — %d datasets from %s", len(manifest.Datasets), manifest.Source)

	// Filter datasets (optional CLI arg: name list)
	nameFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			nameFilter[strings.TrimSpace(s)] = true
		}
	}

	client := &http.Client{Timeout: 120 * time.Second}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent downloads

	for _, ds := range manifest.Datasets {
		if len(nameFilter) > 0 && !nameFilter[ds.Name] {
			continue
		}

		wg.Add(1)
		go func(d DatasetEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestDataset(ctx, repo, pub, client, d); err != nil {
				log.Printf("ERROR [%s]: %v", d.Name, err)
			}
		}(ds)
	}

	wg.Wait()
	log.Println("ingestion complete")
}

// ---------------------------------------------------------------------------
// Per-dataset ingestion
// ---------------------------------------------------------------------------

func ingestDataset(ctx context.Context, repo *postgres.FloatRepo, pub *natsadapter.Publisher, client *http.Client, ds DatasetEntry) error {
	log.Printf("[%s] loading floats from %s", ds.Name, ds.URL)

	body, err := openSource(client, ds.URL)
	if err != nil {
		return err
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	if _, ok := cols["platform_code"]; !ok {
		return fmt.Errorf("no platform_code column in %s", ds.URL)
	}

	const batchSize = 500
	batch := make([]domain.Float, 0, batchSize)
	total := 0
	skipped := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := repo.UpsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
		if pub != nil {
			for i := range batch {
				if err := pub.PublishFloatPosition(ctx, &batch[i]); err != nil {
					log.Printf("[%s] publish %s: %v", ds.Name, batch[i].PlatformCode, err)
				}
			}
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		code := getField(record, cols, "platform_code")
		latStr := getField(record, cols, "latitude")
		lonStr := getField(record, cols, "longitude")

		// Rows with unparsable or out-of-range coordinates are dropped,
		// not fatal: index files routinely carry 99999.0 placeholders.
		lat, lon, ok := projection.ParseCoordinate(latStr, lonStr)
		if code == "" || !ok {
			skipped++
			metrics.IngestErrors.WithLabelValues(ds.Name).Inc()
			continue
		}

		region := getField(record, cols, "ocean")
		if region == "" {
			region = ds.Region
		}
		status := getField(record, cols, "status")
		if status == "" {
			status = "active"
		}
		maxDepth, _ := strconv.Atoi(getField(record, cols, "max_depth_m"))
		deployedAt := parseDate(getField(record, cols, "date"))

		batch = append(batch, domain.Float{
			PlatformCode: code,
			Location:     domain.GeoPoint{Lat: lat, Lon: lon},
			Region:       region,
			Status:       status,
			MaxDepthM:    maxDepth,
			DeployedAt:   deployedAt,
		})
		metrics.FloatsIngested.WithLabelValues(ds.Name).Inc()

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}

	log.Printf("[%s] done: %d floats, %d rows skipped", ds.Name, total, skipped)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// openSource fetches an http(s) URL or opens a local file.
func openSource(client *http.Client, src string) (io.ReadCloser, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		resp, err := client.Get(src)
		if err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, src)
		}
		return resp.Body, nil
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return f, nil
}

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

func getField(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseDate accepts the date formats seen in ARGO index files.
func parseDate(s string) time.Time {
	for _, layout := range []string{"20060102150405", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

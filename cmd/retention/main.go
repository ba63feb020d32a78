package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/oceanpulse/argochat/internal/adapters/gemini"
	"github.com/oceanpulse/argochat/internal/adapters/memstore"
	"github.com/oceanpulse/argochat/internal/adapters/valkey"
	"github.com/oceanpulse/argochat/internal/core/ports"
	"github.com/oceanpulse/argochat/internal/core/usecases"
	"github.com/oceanpulse/argochat/internal/pkg/config"
	"github.com/oceanpulse/argochat/internal/workflows"
)

func main() {
	cfg, err := config.Load("argochat-retention")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	// Same store the API writes, so purges act on live state
	var store ports.KVStore
	vk, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, purging in-memory state only", "error", err)
		store = memstore.New()
	} else {
		defer vk.Close()
		store = vk
	}

	completer := gemini.New(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
	})

	chatSvc := usecases.NewChatService(ctx, store, completer)
	authSvc := usecases.NewAuthService(ctx, store, chatSvc)
	settingsSvc := usecases.NewSettingsService(store)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RetentionWorkflow)
	w.RegisterActivity(&workflows.RetentionActivities{
		Settings: settingsSvc,
		Chat:     chatSvc,
		Auth:     authSvc,
	})

	log.Println("retention worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

package http

import (
	"github.com/nats-io/nats.go"
	"github.com/oceanpulse/argochat/internal/adapters/postgres"
	"github.com/oceanpulse/argochat/internal/core/ports"
	"github.com/oceanpulse/argochat/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Auth     *usecases.AuthService
	Chat     *usecases.ChatService
	Floats   *usecases.FloatService
	Settings *usecases.SettingsService
	Uploads  *usecases.UploadService
	NATS     *nats.Conn
	DB       *postgres.DB
	Store    ports.KVStore
	Cache    ports.CacheService
}

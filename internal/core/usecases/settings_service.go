package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oceanpulse/argochat/internal/core/domain"
	"github.com/oceanpulse/argochat/internal/core/ports"
)

const settingsKey = "ocean-platform-settings"

// SettingsService persists the preferences page.
type SettingsService struct {
	store ports.KVStore
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(store ports.KVStore) *SettingsService {
	return &SettingsService{store: store}
}

// Get returns the stored settings; missing or corrupt state yields
// defaults.
func (s *SettingsService) Get(ctx context.Context) domain.Settings {
	data, err := s.store.Get(ctx, settingsKey)
	if err != nil {
		return domain.DefaultSettings()
	}
	var st domain.Settings
	if err := json.Unmarshal(data, &st); err != nil || !domain.ValidRetention(st.DataRetention) {
		return domain.DefaultSettings()
	}
	return st
}

// Update validates and stores new settings.
func (s *SettingsService) Update(ctx context.Context, st domain.Settings) error {
	if !domain.ValidRetention(st.DataRetention) {
		return fmt.Errorf("invalid data_retention %q", st.DataRetention)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.store.Set(ctx, settingsKey, data); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	return nil
}

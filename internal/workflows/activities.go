package workflows

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/oceanpulse/argochat/internal/core/usecases"
)

// RetentionActivities holds the activity implementations for the retention workflow.
type RetentionActivities struct {
	Settings *usecases.SettingsService
	Chat     *usecases.ChatService
	Auth     *usecases.AuthService
}

// ResolveRetentionWindow reads the stored preferences and returns the
// retention window in seconds. Zero means keep forever.
func (a *RetentionActivities) ResolveRetentionWindow(ctx context.Context) (int64, error) {
	st := a.Settings.Get(ctx)
	return int64(st.RetentionWindow() / time.Second), nil
}

// PurgeThreads removes threads created before the cutoff and returns
// how many were dropped.
func (a *RetentionActivities) PurgeThreads(ctx context.Context, cutoff time.Time) (int, error) {
	sess := a.Auth.Current()
	purged, err := a.Chat.PurgeThreadsBefore(ctx, sess, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge threads: %w", err)
	}
	if purged > 0 {
		log.Printf("Purged %d threads older than %s", purged, cutoff.Format(time.RFC3339))
	}
	return purged, nil
}

package domain

import (
	"time"
)

// Tier is the service level attached to a session.
type Tier string

const (
	TierGuest   Tier = "guest"
	TierNormal  Tier = "normal"
	TierPremium Tier = "premium"
)

// QueryLimit returns the lifetime query ceiling for the tier.
// Zero means unbounded.
func (t Tier) QueryLimit() int {
	switch t {
	case TierGuest:
		return 5
	case TierNormal:
		return 100
	default:
		return 0
	}
}

// Session is the active user of the platform. Guest sessions are never
// persisted and vanish with the process.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Tier      Tier      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// IsGuest reports whether the session is an anonymous trial session.
func (s *Session) IsGuest() bool {
	return s != nil && s.Tier == TierGuest
}

// Message is a single chat entry. Seq orders messages within a thread;
// Timestamp is display-only text and carries no ordering guarantees.
type Message struct {
	ID        string `json:"id"`
	Seq       int    `json:"seq"`
	Content   string `json:"content"`
	IsUser    bool   `json:"is_user"`
	Timestamp string `json:"timestamp"`
}

// Thread is one conversation in the sidebar list.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DateLabel string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// ChatHistory is the persisted transcript of the active thread plus the
// session's cumulative query counter.
type ChatHistory struct {
	Messages   []Message `json:"messages"`
	QueryCount int       `json:"query_count"`
}

// Settings holds the per-user preferences page.
type Settings struct {
	Notifications bool   `json:"notifications"`
	EmailUpdates  bool   `json:"email_updates"`
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	DataRetention string `json:"data_retention"`
	AutoSave      bool   `json:"auto_save"`
}

// Retention windows accepted in Settings.DataRetention.
const (
	Retention30Days  = "30days"
	Retention90Days  = "90days"
	Retention1Year   = "1year"
	RetentionForever = "forever"
)

// RetentionWindow converts the retention setting to a duration.
// Zero means keep forever.
func (s Settings) RetentionWindow() time.Duration {
	switch s.DataRetention {
	case Retention30Days:
		return 30 * 24 * time.Hour
	case Retention90Days:
		return 90 * 24 * time.Hour
	case Retention1Year:
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}

// ValidRetention reports whether v is an accepted retention window.
func ValidRetention(v string) bool {
	switch v {
	case Retention30Days, Retention90Days, Retention1Year, RetentionForever:
		return true
	}
	return false
}

// DefaultSettings returns the preferences a fresh account starts with.
func DefaultSettings() Settings {
	return Settings{
		Notifications: true,
		EmailUpdates:  false,
		Theme:         "dark",
		Language:      "en",
		DataRetention: RetentionForever,
		AutoSave:      true,
	}
}

// UploadedFile is the metadata record of a user upload. File bytes are
// not stored here.
type UploadedFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Status      string    `json:"status"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Float is an ARGO profiling float in the catalog.
type Float struct {
	ID           string    `json:"id"`
	PlatformCode string    `json:"platform_code"`
	Location     GeoPoint  `json:"location"`
	Region       string    `json:"region"`
	Status       string    `json:"status"`
	MaxDepthM    int       `json:"max_depth_m"`
	DeployedAt   time.Time `json:"deployed_at"`
	Distance     *float64  `json:"distance,omitempty"` // computed field
	CreatedAt    time.Time `json:"created_at"`
}

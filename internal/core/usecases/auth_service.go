package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oceanpulse/argochat/internal/core/domain"
	"github.com/oceanpulse/argochat/internal/core/ports"
)

const sessionKey = "ocean-platform-user"

// ErrMissingCredentials is returned when a login or registration field
// is empty. Beyond non-emptiness no credential checking happens; the
// platform is a demo and accepts any pair.
var ErrMissingCredentials = errors.New("missing credentials")

// HistoryClearer wipes all conversation state for the active session.
// Implemented by ChatService; logout goes through it.
type HistoryClearer interface {
	Reset(ctx context.Context) error
}

// AuthService owns the single active session: login, registration,
// guest access and logout. Guest sessions are held in memory only and
// never reach the store.
type AuthService struct {
	store   ports.KVStore
	history HistoryClearer

	mu      sync.RWMutex
	current *domain.Session
}

// NewAuthService restores a persisted session if one exists. A stored
// value that fails to decode is treated as absent.
func NewAuthService(ctx context.Context, store ports.KVStore, history HistoryClearer) *AuthService {
	s := &AuthService{store: store, history: history}
	if data, err := store.Get(ctx, sessionKey); err == nil {
		var sess domain.Session
		if err := json.Unmarshal(data, &sess); err == nil && sess.ID != "" && !sess.IsGuest() {
			s.current = &sess
		}
	}
	return s
}

// Current returns the active session, or nil when unauthenticated.
func (s *AuthService) Current() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Login starts an authenticated session. Any non-empty email/password
// pair succeeds; emails containing "premium" get the premium tier.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	tier := domain.TierNormal
	if strings.Contains(email, "premium") {
		tier = domain.TierPremium
	}
	name := email
	if i := strings.Index(email, "@"); i >= 0 {
		name = email[:i]
	}

	sess := &domain.Session{
		ID:        "user-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		Email:     email,
		Name:      name,
		Tier:      tier,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess, nil
}

// Register creates a new account session. Tier is always normal.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.Session, error) {
	if email == "" || password == "" || name == "" {
		return nil, ErrMissingCredentials
	}

	sess := &domain.Session{
		ID:        "user-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		Email:     email,
		Name:      name,
		Tier:      domain.TierNormal,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess, nil
}

// ContinueAsGuest starts an anonymous trial session. Nothing is written
// to the store, so the session (and its quota counter) does not survive
// a restart.
func (s *AuthService) ContinueAsGuest() *domain.Session {
	sess := &domain.Session{
		ID:        "guest-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		Email:     "guest@ocean-platform.com",
		Name:      "Guest User",
		Tier:      domain.TierGuest,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess
}

// Logout ends the session and destroys its stored state, including the
// chat history and thread list.
func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.store.Remove(ctx, sessionKey); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if s.history != nil {
		if err := s.history.Reset(ctx); err != nil {
			return fmt.Errorf("reset history: %w", err)
		}
	}
	return nil
}

func (s *AuthService) persist(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.store.Set(ctx, sessionKey, data); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

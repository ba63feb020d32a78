package usecases_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/oceanpulse/argochat/internal/adapters/memstore"
	"github.com/oceanpulse/argochat/internal/core/domain"
	"github.com/oceanpulse/argochat/internal/core/usecases"
)

func TestAuthService_Login_TierFromEmail(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewAuthService(ctx, memstore.New(), nil)

	sess, err := svc.Login(ctx, "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Tier != domain.TierNormal {
		t.Errorf("expected normal tier, got %s", sess.Tier)
	}
	if sess.Name != "alice" {
		t.Errorf("expected name alice, got %s", sess.Name)
	}
	if !strings.HasPrefix(sess.ID, "user-") {
		t.Errorf("unexpected id %s", sess.ID)
	}

	prem, err := svc.Login(ctx, "premium.bob@example.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prem.Tier != domain.TierPremium {
		t.Errorf("expected premium tier, got %s", prem.Tier)
	}
}

func TestAuthService_Login_MissingCredentials(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewAuthService(ctx, memstore.New(), nil)

	if _, err := svc.Login(ctx, "", "pw"); err != usecases.ErrMissingCredentials {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com", ""); err != usecases.ErrMissingCredentials {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if svc.Current() != nil {
		t.Error("failed login must not establish a session")
	}
}

func TestAuthService_Register_AlwaysNormal(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewAuthService(ctx, memstore.New(), nil)

	sess, err := svc.Register(ctx, "premium.carol@example.com", "pw", "Carol")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Tier != domain.TierNormal {
		t.Errorf("registration must yield normal tier, got %s", sess.Tier)
	}
}

func TestAuthService_Guest_NeverPersisted(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := usecases.NewAuthService(ctx, store, nil)

	sess := svc.ContinueAsGuest()
	if sess.Tier != domain.TierGuest {
		t.Fatalf("expected guest tier, got %s", sess.Tier)
	}
	if sess.Email != "guest@ocean-platform.com" || sess.Name != "Guest User" {
		t.Errorf("unexpected guest identity: %+v", sess)
	}
	if store.Len() != 0 {
		t.Error("guest session must not reach the store")
	}

	// A restart therefore comes up unauthenticated.
	again := usecases.NewAuthService(ctx, store, nil)
	if again.Current() != nil {
		t.Error("guest session survived a restart")
	}
}

func TestAuthService_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := usecases.NewAuthService(ctx, store, nil)

	if _, err := svc.Login(ctx, "dave@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	again := usecases.NewAuthService(ctx, store, nil)
	sess := again.Current()
	if sess == nil || sess.Email != "dave@example.com" {
		t.Fatalf("session not restored: %+v", sess)
	}
}

func TestAuthService_CorruptSessionTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	_ = store.Set(ctx, "ocean-platform-user", []byte("{not json"))

	svc := usecases.NewAuthService(ctx, store, nil)
	if svc.Current() != nil {
		t.Error("corrupt session data must bootstrap as unauthenticated")
	}
}

func TestAuthService_Logout_DestroysState(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	chat := usecases.NewChatService(ctx, store, &mockCompleter{})
	svc := usecases.NewAuthService(ctx, store, chat)

	sess, err := svc.Login(ctx, "erin@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := chat.SubmitQuery(ctx, sess, "show me temperature profiles"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := store.Get(ctx, "ocean-platform-chat-history"); err != nil {
		t.Fatal("history should be persisted before logout")
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if svc.Current() != nil {
		t.Error("session still active after logout")
	}
	for _, key := range []string{"ocean-platform-user", "ocean-platform-chat-history", "ocean-platform-chat-list"} {
		if _, err := store.Get(ctx, key); err == nil {
			t.Errorf("key %s survived logout", key)
		}
	}
	if chat.QueryCount() != 0 {
		t.Errorf("counter survived logout: %d", chat.QueryCount())
	}
}

func TestAuthService_PersistedSessionIsValidJSON(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := usecases.NewAuthService(ctx, store, nil)

	if _, err := svc.Login(ctx, "frank@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	data, err := store.Get(ctx, "ocean-platform-user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		t.Fatalf("stored session not valid JSON: %v", err)
	}
	if sess.Tier != domain.TierNormal {
		t.Errorf("unexpected stored tier %s", sess.Tier)
	}
}

package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/oceanpulse/argochat/internal/adapters/memstore"
	"github.com/oceanpulse/argochat/internal/core/domain"
	"github.com/oceanpulse/argochat/internal/core/usecases"
	"github.com/oceanpulse/argochat/internal/pkg/metrics"
)

// --- Mock Completer ---

type mockCompleter struct {
	completeFn func(ctx context.Context, prompt string) (string, error)
	calls      int
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt)
	}
	return "mock reply", nil
}

func guestSession() *domain.Session {
	return &domain.Session{ID: "guest-1", Tier: domain.TierGuest}
}

func normalSession() *domain.Session {
	return &domain.Session{ID: "user-1", Email: "a@b.com", Tier: domain.TierNormal}
}

// --- Tests ---

func TestChatService_StartsWithWelcome(t *testing.T) {
	svc := usecases.NewChatService(context.Background(), memstore.New(), &mockCompleter{})

	msgs := svc.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 welcome message, got %d", len(msgs))
	}
	if msgs[0].IsUser {
		t.Error("welcome message must not be a user message")
	}
	if !strings.Contains(msgs[0].Content, "ARGO ocean data") {
		t.Errorf("unexpected welcome text: %q", msgs[0].Content)
	}
	if svc.QueryCount() != 0 {
		t.Errorf("fresh service count = %d, want 0", svc.QueryCount())
	}
}

func TestChatService_SubmitAppendsPair(t *testing.T) {
	ctx := context.Background()
	comp := &mockCompleter{completeFn: func(ctx context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "User question: what is salinity?") {
			t.Errorf("prompt missing user question: %q", prompt)
		}
		if !strings.Contains(prompt, "ARGO ocean data analysis") {
			t.Errorf("prompt missing system preamble")
		}
		return "salinity is dissolved salt", nil
	}}
	svc := usecases.NewChatService(ctx, memstore.New(), comp)

	msg, err := svc.SubmitQuery(ctx, normalSession(), "what is salinity?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Content != "salinity is dissolved salt" || msg.IsUser {
		t.Errorf("unexpected reply %+v", msg)
	}

	msgs := svc.Messages()
	if len(msgs) != 3 { // welcome, user, assistant
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if !msgs[1].IsUser || msgs[1].Content != "what is salinity?" {
		t.Errorf("user message wrong: %+v", msgs[1])
	}
	if svc.QueryCount() != 1 {
		t.Errorf("count = %d, want 1", svc.QueryCount())
	}
}

func TestChatService_MessagesOrderedBySeq(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewChatService(ctx, memstore.New(), &mockCompleter{})

	for i := 0; i < 3; i++ {
		if _, err := svc.SubmitQuery(ctx, normalSession(), fmt.Sprintf("q%d", i)); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	msgs := svc.Messages()
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Seq <= msgs[i-1].Seq {
			t.Fatalf("seq not strictly increasing at %d: %d then %d", i, msgs[i-1].Seq, msgs[i].Seq)
		}
	}
}

func TestChatService_GuestLimit(t *testing.T) {
	ctx := context.Background()
	comp := &mockCompleter{}
	svc := usecases.NewChatService(ctx, memstore.New(), comp)
	sess := guestSession()

	for i := 0; i < 5; i++ {
		if _, err := svc.SubmitQuery(ctx, sess, "q"); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if svc.QueryCount() != 5 {
		t.Fatalf("count = %d, want 5", svc.QueryCount())
	}
	before := len(svc.Messages())

	// Sixth query: exactly one system message, no completion call,
	// counter frozen.
	msg, err := svc.SubmitQuery(ctx, sess, "one more")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg.Content, "query limit for guest users") {
		t.Errorf("unexpected limit text: %q", msg.Content)
	}
	if svc.QueryCount() != 5 {
		t.Errorf("count moved past limit: %d", svc.QueryCount())
	}
	if got := len(svc.Messages()); got != before+1 {
		t.Errorf("expected exactly one appended message, got %d new", got-before)
	}
	if comp.calls != 5 {
		t.Errorf("completion called %d times, want 5", comp.calls)
	}
}

func TestChatService_NormalLimit(t *testing.T) {
	ctx := context.Background()
	comp := &mockCompleter{}
	svc := usecases.NewChatService(ctx, memstore.New(), comp)
	sess := normalSession()

	for i := 0; i < 100; i++ {
		if _, err := svc.SubmitQuery(ctx, sess, "q"); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	msg, err := svc.SubmitQuery(ctx, sess, "over")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.IsUser || !strings.Contains(msg.Content, "query limit") {
		t.Errorf("expected limit message, got %+v", msg)
	}
	if svc.QueryCount() != 100 {
		t.Errorf("count = %d, want 100", svc.QueryCount())
	}
	if comp.calls != 100 {
		t.Errorf("completion called %d times, want 100", comp.calls)
	}
}

func TestChatService_PremiumUnbounded(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewChatService(ctx, memstore.New(), &mockCompleter{})
	sess := &domain.Session{ID: "user-p", Tier: domain.TierPremium}

	for i := 0; i < 120; i++ {
		msg, err := svc.SubmitQuery(ctx, sess, "q")
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if strings.Contains(msg.Content, "query limit") {
			t.Fatalf("premium hit a limit at query %d", i)
		}
	}
	if svc.QueryCount() != 120 {
		t.Errorf("count = %d, want 120", svc.QueryCount())
	}
}

func TestChatService_FailedCompletionStillCounts(t *testing.T) {
	ctx := context.Background()
	comp := &mockCompleter{completeFn: func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("upstream 503")
	}}
	svc := usecases.NewChatService(ctx, memstore.New(), comp)

	msg, err := svc.SubmitQuery(ctx, normalSession(), "q")
	if err != nil {
		t.Fatalf("completion failure must not surface as an error: %v", err)
	}
	if !strings.Contains(msg.Content, "having trouble connecting") {
		t.Errorf("expected apology message, got %q", msg.Content)
	}
	if svc.QueryCount() != 1 {
		t.Errorf("failed query must still consume quota, count = %d", svc.QueryCount())
	}
}

func TestChatService_FailedCompletionIncrementsCounter(t *testing.T) {
	ctx := context.Background()
	comp := &mockCompleter{completeFn: func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("upstream 503")
	}}
	svc := usecases.NewChatService(ctx, memstore.New(), comp)

	before := testutil.ToFloat64(metrics.CompletionFailures)
	if _, err := svc.SubmitQuery(ctx, normalSession(), "q"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := testutil.ToFloat64(metrics.CompletionFailures) - before; got != 1 {
		t.Errorf("completion failure counter moved by %v, want 1", got)
	}
}

func TestChatService_ThreadTitleTruncation(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewChatService(ctx, memstore.New(), &mockCompleter{})

	long := strings.Repeat("a", 45)
	if _, err := svc.SubmitQuery(ctx, normalSession(), long); err != nil {
		t.Fatalf("submit: %v", err)
	}

	threads := svc.Threads()
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(threads))
	}
	want := strings.Repeat("a", 40) + "..."
	if threads[0].Title != want {
		t.Errorf("title = %q, want %q", threads[0].Title, want)
	}

	// Multi-byte first messages must truncate on rune boundaries, never
	// splitting a character.
	svc = usecases.NewChatService(ctx, memstore.New(), &mockCompleter{})
	if _, err := svc.SubmitQuery(ctx, normalSession(), strings.Repeat("海", 45)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	title := svc.Threads()[0].Title
	if want := strings.Repeat("海", 40) + "..."; title != want {
		t.Errorf("title = %q, want %q", title, want)
	}
	if !utf8.ValidString(title) {
		t.Errorf("title is not valid UTF-8: %q", title)
	}
}

func TestChatService_ThreadRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewChatService(ctx, memstore.New(), &mockCompleter{})
	sess := normalSession()

	if _, err := svc.SubmitQuery(ctx, sess, "first conversation"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	first := svc.Threads()[0]
	firstLen := len(svc.Messages())

	svc.NewThread(ctx, sess)
	if got := len(svc.Messages()); got != 1 {
		t.Fatalf("new thread should hold only the welcome message, got %d", got)
	}
	if svc.QueryCount() != 1 {
		t.Errorf("new thread must not touch the counter, count = %d", svc.QueryCount())
	}

	if !svc.SelectThread(ctx, sess, first.ID) {
		t.Fatal("SelectThread returned false for a known thread")
	}
	if got := len(svc.Messages()); got != firstLen {
		t.Errorf("restored thread has %d messages, want %d", got, firstLen)
	}
	if svc.SelectThread(ctx, sess, "no-such-thread") {
		t.Error("SelectThread must be a no-op for unknown ids")
	}
}

func TestChatService_SecondSendUpdatesThreadInPlace(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewChatService(ctx, memstore.New(), &mockCompleter{})
	sess := normalSession()

	if _, err := svc.SubmitQuery(ctx, sess, "first"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.SubmitQuery(ctx, sess, "second"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	threads := svc.Threads()
	if len(threads) != 1 {
		t.Fatalf("expected 1 sidebar thread after two sends, got %d", len(threads))
	}
	if len(threads[0].Messages) != len(svc.Messages()) {
		t.Errorf("sidebar thread stale: %d messages vs %d active", len(threads[0].Messages), len(svc.Messages()))
	}
}

func TestChatService_GuestNotPersisted(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := usecases.NewChatService(ctx, store, &mockCompleter{})

	if _, err := svc.SubmitQuery(ctx, guestSession(), "q"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("guest chat reached the store: %d keys", store.Len())
	}
}

func TestChatService_HistorySurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := usecases.NewChatService(ctx, store, &mockCompleter{})
	sess := normalSession()

	if _, err := svc.SubmitQuery(ctx, sess, "remember me"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	wantMsgs := len(svc.Messages())

	again := usecases.NewChatService(ctx, store, &mockCompleter{})
	if got := len(again.Messages()); got != wantMsgs {
		t.Errorf("restored %d messages, want %d", got, wantMsgs)
	}
	if again.QueryCount() != 1 {
		t.Errorf("restored count = %d, want 1", again.QueryCount())
	}
}

func TestChatService_CorruptHistoryBootstrapsFresh(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	_ = store.Set(ctx, "ocean-platform-chat-history", []byte("%%%garbage%%%"))
	_ = store.Set(ctx, "ocean-platform-chat-list", []byte("["))

	svc := usecases.NewChatService(ctx, store, &mockCompleter{})
	if svc.QueryCount() != 0 {
		t.Errorf("corrupt history must reset count, got %d", svc.QueryCount())
	}
	msgs := svc.Messages()
	if len(msgs) != 1 || msgs[0].IsUser {
		t.Errorf("corrupt history must yield the welcome transcript, got %d messages", len(msgs))
	}
	if len(svc.Threads()) != 0 {
		t.Errorf("corrupt thread list must yield no threads")
	}
}

func TestChatService_ClearHistoryKeepsCounter(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := usecases.NewChatService(ctx, store, &mockCompleter{})
	sess := normalSession()

	if _, err := svc.SubmitQuery(ctx, sess, "q"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.ClearHistory(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if svc.QueryCount() != 1 {
		t.Errorf("clearing history must not reset quota, count = %d", svc.QueryCount())
	}
	if len(svc.Threads()) != 0 {
		t.Error("thread list survived clear")
	}
	if _, err := store.Get(ctx, "ocean-platform-chat-history"); err == nil {
		t.Error("history key survived clear")
	}
}

func TestChatService_PersistedHistoryShape(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := usecases.NewChatService(ctx, store, &mockCompleter{})

	if _, err := svc.SubmitQuery(ctx, normalSession(), "q"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	data, err := store.Get(ctx, "ocean-platform-chat-history")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var h domain.ChatHistory
	if err := json.Unmarshal(data, &h); err != nil {
		t.Fatalf("stored history not valid JSON: %v", err)
	}
	if h.QueryCount != 1 || len(h.Messages) != 3 {
		t.Errorf("unexpected stored history: count=%d messages=%d", h.QueryCount, len(h.Messages))
	}
}

package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/oceanpulse/argochat/internal/core/domain"
	"github.com/oceanpulse/argochat/internal/core/ports"
	"github.com/oceanpulse/argochat/internal/pkg/metrics"
)

const (
	historyKey    = "ocean-platform-chat-history"
	threadListKey = "ocean-platform-chat-list"
)

// ErrNoSession is returned when a chat operation runs without an active
// session.
var ErrNoSession = errors.New("no active session")

const welcomeText = "Hello! I'm your AI assistant for exploring ARGO ocean data. You can ask me questions like:\n\n" +
	"• \"Show me temperature profiles in the North Atlantic\"\n" +
	"• \"What are the salinity levels near the equator?\"\n" +
	"• \"Find BGC data from the last 6 months\"\n\n" +
	"How can I help you today?"

const guestLimitText = "You've reached the query limit for guest users. " +
	"Please sign up for a free account to continue chatting with unlimited queries!"

const normalLimitText = "You've reached the query limit for free accounts. " +
	"Please upgrade to premium to continue chatting with unlimited queries!"

const completionFallback = "I apologize, but I'm having trouble connecting to the AI service right now. " +
	"Please try again in a moment."

const systemPreamble = `You are an AI assistant specialized in ARGO ocean data analysis. You help users explore oceanographic data from autonomous ARGO floats that measure temperature, salinity, and biogeochemical parameters in the world's oceans.

Key information about ARGO floats:
- Over 4,000 active floats globally
- Measure temperature and salinity from surface to 2000m depth
- BGC floats also measure oxygen, chlorophyll, pH, and nutrients
- Data collected every 10 days
- Critical for climate research and ocean monitoring

Provide helpful, accurate responses about ocean data, ARGO float operations, and oceanographic research. Keep responses informative but accessible. When discussing specific data, mention that this is a demo platform and real data integration would require database queries.`

// ChatService is the single owner of the conversation state: the active
// thread, the sidebar thread list and the cumulative query counter. All
// mutations go through its mutex, so concurrent sends cannot lose
// messages or counter increments.
type ChatService struct {
	store     ports.KVStore
	completer ports.Completer

	mu        sync.Mutex
	active    domain.Thread
	threads   []domain.Thread
	count     int
	nextSeq   int
	threadSeq int
}

// NewChatService restores persisted history and the thread list.
// Corrupt or missing state yields fresh defaults with a zero counter.
func NewChatService(ctx context.Context, store ports.KVStore, completer ports.Completer) *ChatService {
	s := &ChatService{store: store, completer: completer, nextSeq: 1}

	if data, err := store.Get(ctx, historyKey); err == nil {
		var h domain.ChatHistory
		if err := json.Unmarshal(data, &h); err == nil && len(h.Messages) > 0 && h.QueryCount >= 0 {
			s.active = domain.Thread{ID: "1", CreatedAt: time.Now().UTC(), Messages: h.Messages}
			s.count = h.QueryCount
			for _, m := range h.Messages {
				if m.Seq >= s.nextSeq {
					s.nextSeq = m.Seq + 1
				}
			}
		}
	}
	if len(s.active.Messages) == 0 {
		s.freshThread()
	}

	if data, err := store.Get(ctx, threadListKey); err == nil {
		var threads []domain.Thread
		if err := json.Unmarshal(data, &threads); err == nil {
			s.threads = threads
		}
	}
	return s
}

// SubmitQuery runs one send: quota gate, user message, completion,
// assistant (or apology) message. The returned message is the one the
// assistant side appended. Sends are serialized; a failed completion
// still consumes quota.
func (s *ChatService) SubmitQuery(ctx context.Context, sess *domain.Session, text string) (*domain.Message, error) {
	if sess == nil {
		return nil, ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if limit := sess.Tier.QueryLimit(); limit > 0 && s.count >= limit {
		msg := s.append(limitText(sess.Tier), false)
		return &msg, nil
	}

	s.append(text, true)
	s.count++

	// First user message names the thread and puts it in the sidebar.
	if s.active.Title == "" {
		s.active.Title = threadTitle(text)
		s.active.DateLabel = "Just now"
		s.threads = append(s.threads, s.activeSnapshot())
	}
	s.persist(ctx, sess)

	reply, err := s.completer.Complete(ctx, systemPreamble+"\n\nUser question: "+text)
	var msg domain.Message
	if err != nil {
		slog.Warn("completion failed", "error", err)
		metrics.CompletionFailures.Inc()
		msg = s.append(completionFallback, false)
	} else {
		msg = s.append(reply, false)
	}

	s.syncActive()
	s.persist(ctx, sess)
	return &msg, nil
}

// Messages returns a copy of the active thread's transcript.
func (s *ChatService) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.active.Messages))
	copy(out, s.active.Messages)
	return out
}

// QueryCount returns the cumulative number of user queries this
// session has submitted. It never decreases.
func (s *ChatService) QueryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// NewThread replaces the active thread with a fresh one holding only
// the welcome message. The counter is untouched; the thread joins the
// sidebar list when it receives its first user message.
func (s *ChatService) NewThread(ctx context.Context, sess *domain.Session) domain.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.freshThread()
	s.persist(ctx, sess)
	return s.activeSnapshot()
}

// Threads returns a copy of the sidebar thread list.
func (s *ChatService) Threads() []domain.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Thread, len(s.threads))
	copy(out, s.threads)
	return out
}

// SelectThread switches the active thread to a stored one. Unknown IDs
// are a no-op and return false.
func (s *ChatService) SelectThread(ctx context.Context, sess *domain.Session, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, th := range s.threads {
		if th.ID == id {
			s.active = th
			for _, m := range th.Messages {
				if m.Seq >= s.nextSeq {
					s.nextSeq = m.Seq + 1
				}
			}
			s.persist(ctx, sess)
			return true
		}
	}
	return false
}

// ClearHistory erases the stored transcript and thread list. The query
// counter survives: clearing history is not a quota reset.
func (s *ChatService) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.threads = nil
	s.freshThread()
	if err := s.store.Remove(ctx, historyKey); err != nil {
		return fmt.Errorf("remove history: %w", err)
	}
	if err := s.store.Remove(ctx, threadListKey); err != nil {
		return fmt.Errorf("remove thread list: %w", err)
	}
	return nil
}

// Reset wipes everything including the counter. Called on logout.
func (s *ChatService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.threads = nil
	s.count = 0
	s.nextSeq = 1
	s.freshThread()
	if err := s.store.Remove(ctx, historyKey); err != nil {
		return fmt.Errorf("remove history: %w", err)
	}
	if err := s.store.Remove(ctx, threadListKey); err != nil {
		return fmt.Errorf("remove thread list: %w", err)
	}
	return nil
}

// PurgeThreadsBefore drops stored threads created before the cutoff and
// returns how many were removed. The active thread is never purged.
func (s *ChatService) PurgeThreadsBefore(ctx context.Context, sess *domain.Session, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.threads[:0]
	removed := 0
	for _, th := range s.threads {
		if th.ID != s.active.ID && th.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, th)
	}
	s.threads = kept
	if removed > 0 {
		s.persist(ctx, sess)
	}
	return removed, nil
}

// append adds a message to the active thread and returns it. Callers
// hold s.mu.
func (s *ChatService) append(content string, isUser bool) domain.Message {
	msg := domain.Message{
		ID:        strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strconv.Itoa(s.nextSeq),
		Seq:       s.nextSeq,
		Content:   content,
		IsUser:    isUser,
		Timestamp: time.Now().Format("15:04:05"),
	}
	s.nextSeq++
	s.active.Messages = append(s.active.Messages, msg)
	return msg
}

// freshThread installs a new active thread seeded with the welcome
// message. Callers hold s.mu (or run before the service is shared).
func (s *ChatService) freshThread() {
	s.threadSeq++
	s.active = domain.Thread{
		ID:        strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strconv.Itoa(s.threadSeq),
		CreatedAt: time.Now().UTC(),
	}
	s.append(welcomeText, false)
}

// syncActive refreshes the active thread's entry in the sidebar list.
// Callers hold s.mu.
func (s *ChatService) syncActive() {
	for i := range s.threads {
		if s.threads[i].ID == s.active.ID {
			s.threads[i] = s.activeSnapshot()
			return
		}
	}
}

func (s *ChatService) activeSnapshot() domain.Thread {
	th := s.active
	th.Messages = make([]domain.Message, len(s.active.Messages))
	copy(th.Messages, s.active.Messages)
	return th
}

// persist writes history and thread list for non-guest sessions. Guest
// state stays in memory only. Store failures are logged, not fatal: a
// send must not fail because persistence hiccuped.
func (s *ChatService) persist(ctx context.Context, sess *domain.Session) {
	if sess == nil || sess.IsGuest() {
		return
	}
	if data, err := json.Marshal(domain.ChatHistory{Messages: s.active.Messages, QueryCount: s.count}); err == nil {
		if err := s.store.Set(ctx, historyKey, data); err != nil {
			slog.Warn("persist chat history", "error", err)
		}
	}
	if data, err := json.Marshal(s.threads); err == nil {
		if err := s.store.Set(ctx, threadListKey, data); err != nil {
			slog.Warn("persist thread list", "error", err)
		}
	}
}

func limitText(tier domain.Tier) string {
	if tier == domain.TierGuest {
		return guestLimitText
	}
	return normalLimitText
}

func threadTitle(content string) string {
	// Truncate on rune boundaries so multi-byte titles stay valid UTF-8.
	runes := []rune(content)
	if len(runes) > 40 {
		return string(runes[:40]) + "..."
	}
	return content
}

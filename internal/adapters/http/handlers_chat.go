package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oceanpulse/argochat/internal/pkg/metrics"
)

type chatRequest struct {
	Message string `json:"message"`
	// Accepted for compatibility with the SPA payload; the session's
	// tier is authoritative.
	UserType string `json:"user_type"`
}

type chatResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ChatHandler runs one chat send: quota gate, completion, reply.
// Quota exhaustion and completion failures both come back as a normal
// 200 with an inline message, never as an error status.
func ChatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Message == "" {
			return errBadRequest(c, "message is required")
		}
		if len(req.Message) > 4000 {
			return errBadRequest(c, "message too long (max 4000 characters)")
		}

		sess := deps.Auth.Current()
		before := deps.Chat.QueryCount()

		start := time.Now()
		msg, err := deps.Chat.SubmitQuery(c.Context(), sess, req.Message)
		if err != nil {
			return errInternal(c, err.Error())
		}
		metrics.CompletionDuration.Observe(time.Since(start).Seconds())

		tier := string(sess.Tier)
		if deps.Chat.QueryCount() == before {
			metrics.QuotaRejections.WithLabelValues(tier).Inc()
		} else {
			metrics.ChatQueries.WithLabelValues(tier).Inc()
		}

		return c.JSON(chatResponse{
			Message:   msg.Content,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// MessagesHandler returns the active thread's transcript.
func MessagesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		msgs := deps.Chat.Messages()
		return c.JSON(fiber.Map{
			"messages": msgs,
			"count":    len(msgs),
		})
	}
}

// QuotaHandler reports quota usage for the active session. A zero
// limit means unbounded.
func QuotaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := deps.Auth.Current()
		return c.JSON(fiber.Map{
			"tier":  sess.Tier,
			"used":  deps.Chat.QueryCount(),
			"limit": sess.Tier.QueryLimit(),
		})
	}
}

// NewThreadHandler starts a fresh conversation.
func NewThreadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		th := deps.Chat.NewThread(c.Context(), deps.Auth.Current())
		return c.Status(fiber.StatusCreated).JSON(th)
	}
}

// ListThreadsHandler returns the sidebar thread list.
func ListThreadsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		threads := deps.Chat.Threads()
		return c.JSON(fiber.Map{
			"threads": threads,
			"count":   len(threads),
		})
	}
}

// SelectThreadHandler switches the active thread.
func SelectThreadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "thread id is required")
		}
		if !deps.Chat.SelectThread(c.Context(), deps.Auth.Current(), id) {
			return errNotFound(c, "thread not found")
		}
		return c.JSON(fiber.Map{
			"messages": deps.Chat.Messages(),
		})
	}
}

// ClearHistoryHandler erases stored threads and transcript. The quota
// counter is unaffected.
func ClearHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Chat.ClearHistory(c.Context()); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

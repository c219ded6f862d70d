package httpapi

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const requestIDKey = "request_id"

// requestID assigns a fresh id to every request; clients may pre-set one via
// X-Request-ID.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDKey, id)
		c.Set("X-Request-ID", id)
		return c.Next()
	}
}

// logRequests emits one structured line per request.
func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
	}
	slog.Info("http: request",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", requestIDOf(c)),
	)
	return err
}

func requestIDOf(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func logError(c *fiber.Ctx, err error) {
	slog.Error("http: handler failed",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("request_id", requestIDOf(c)),
		slog.Any("error", err),
	)
}

// rateLimit is a per-IP token bucket. Limiters are created lazily and kept
// for the process lifetime; the IP cardinality of a single deployment is
// small enough that no eviction is needed.
func (s *Server) rateLimit() fiber.Handler {
	if s.cfg.RateLimitRPS <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *fiber.Ctx) error {
		ip := c.IP()
		mu.Lock()
		lim, ok := limiters[ip]
		if !ok {
			lim = rate.NewLimiter(rate.Limit(s.cfg.RateLimitRPS), s.cfg.RateLimitBurst)
			limiters[ip] = lim
		}
		mu.Unlock()

		if !lim.Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status": "error", "code": "RATE_LIMITED", "message": "too many requests",
			})
		}
		return c.Next()
	}
}

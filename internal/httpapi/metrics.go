package httpapi

import (
	"fmt"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"

	"jobboard-backend/internal/cache"
)

// Request counters, incremented by the search handlers.
var (
	searchRequests   atomic.Int64
	locationSearches atomic.Int64
	titleSuggests    atomic.Int64
)

// metrics writes a plain-text counter dump.
func (s *Server) metrics(c *fiber.Ctx) error {
	hits, misses := cache.Stats()
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(fmt.Sprintf(
		"search_requests %d\nlocation_searches %d\ntitle_suggests %d\ncache_hits %d\ncache_misses %d\n",
		searchRequests.Load(), locationSearches.Load(), titleSuggests.Load(), hits, misses,
	))
}

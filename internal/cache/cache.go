// Package cache provides the small TTL cache used for featured listings and
// filter-option distincts: an L1 in-memory tier plus an optional L2 Redis
// tier. L1 is fast but lost on restart; L2 survives restarts.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var store *tieredCache

// Hit/miss counters, exported through the metrics endpoint.
var (
	hits   atomic.Int64
	misses atomic.Int64
)

type tieredCache struct {
	l1              sync.Map // key → *entry
	rdb             *redis.Client
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration

	mu       sync.Mutex
	versions map[string]uint64 // namespace → version, bumped on Invalidate
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Init sets up the cache. redisURL can be empty to disable L2.
func Init(redisURL string, ttl time.Duration, maxEntries int, cleanupInterval time.Duration) {
	c := &tieredCache{
		ttl:             ttl,
		maxEntries:      maxEntries,
		cleanupInterval: cleanupInterval,
		versions:        make(map[string]uint64),
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
			} else {
				c.rdb = rdb
				slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	store = c
	slog.Info("cache: initialized", slog.Duration("ttl", ttl), slog.Bool("redis", c.rdb != nil), slog.Int("max_entries", maxEntries))

	go c.cleanupLoop()
}

// Key builds a deterministic cache key from a namespace and its bounded
// parameters. The namespace version is folded in so Invalidate(ns) retires
// every parameterized key of that namespace at once.
func Key(ns string, parts ...string) string {
	if store == nil {
		return ns
	}
	store.mu.Lock()
	v := store.versions[ns]
	store.mu.Unlock()
	joined := ns + "|" + strconv.FormatUint(v, 10) + "|" + strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("jb:%s:%x", ns, hash[:12])
}

// Invalidate retires every key of the namespace. Called before a mutation is
// acknowledged; stale L2 entries age out by TTL since their versioned keys
// are never read again.
func Invalidate(ns string) {
	if store == nil {
		return
	}
	store.mu.Lock()
	store.versions[ns]++
	store.mu.Unlock()
	prefix := "jb:" + ns + ":"
	store.l1.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			store.l1.Delete(key)
		}
		return true
	})
}

// Get tries L1, then L2. On an L2 hit the entry is promoted to L1.
func Get[T any](ctx context.Context, key string) (T, bool) {
	var zero T
	if store == nil {
		misses.Add(1)
		return zero, false
	}

	if val, ok := store.l1.Load(key); ok {
		e := val.(*entry)
		if time.Now().Before(e.expiresAt) {
			var out T
			if json.Unmarshal(e.data, &out) == nil {
				hits.Add(1)
				return out, true
			}
		}
		store.l1.Delete(key) // expired or corrupt
	}

	if store.rdb != nil {
		data, err := store.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var out T
			if json.Unmarshal(data, &out) == nil {
				hits.Add(1)
				store.l1.Store(key, &entry{data: data, expiresAt: time.Now().Add(store.ttl)})
				return out, true
			}
		}
	}

	misses.Add(1)
	return zero, false
}

// Set stores value in both tiers.
func Set[T any](ctx context.Context, key string, value T) {
	if store == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	store.evictIfNeeded()
	store.l1.Store(key, &entry{data: data, expiresAt: time.Now().Add(store.ttl)})

	if store.rdb != nil {
		if err := store.rdb.Set(ctx, key, data, store.ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

// Stats returns the hit/miss counters.
func Stats() (int64, int64) {
	return hits.Load(), misses.Load()
}

// evictIfNeeded removes entries when L1 exceeds maxEntries: expired entries
// first, then the oldest until under the limit.
func (c *tieredCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < c.maxEntries {
		return
	}

	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if e, ok := val.(*entry); ok && now.After(e.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})
	if count < c.maxEntries {
		return
	}

	var oldest struct {
		key any
		at  time.Time
	}
	for count >= c.maxEntries {
		oldest.key = nil
		oldest.at = now.Add(time.Hour)
		c.l1.Range(func(key, val any) bool {
			if e, ok := val.(*entry); ok && e.expiresAt.Before(oldest.at) {
				oldest.key = key
				oldest.at = e.expiresAt
			}
			return true
		})
		if oldest.key == nil {
			break
		}
		c.l1.Delete(oldest.key)
		count--
	}
}

func (c *tieredCache) cleanupLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.l1.Range(func(key, val any) bool {
			if e, ok := val.(*entry); ok && now.After(e.expiresAt) {
				c.l1.Delete(key)
			}
			return true
		})
	}
}

// Reset clears all cache state. Test helper.
func Reset() {
	store = nil
	hits.Store(0)
	misses.Store(0)
}

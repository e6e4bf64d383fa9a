// Package cooldown drops events that arrive too soon after the previous
// accepted event from the same user.
//
// The first event inside the interval passes. Later events inside the
// interval are rejected and never replayed.
package cooldown

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultInterval is the minimum gap between two accepted events of a user.
const DefaultInterval = 500 * time.Millisecond

// DefaultMaxEntries bounds the memory backend.
const DefaultMaxEntries = 10000

// Gate decides whether an event may proceed.
type Gate interface {
	Allow(ctx context.Context, userID int64) bool
}

// Clock returns the current time. Tests inject a fake.
type Clock func() time.Time

// Memory is a bounded in-process Gate.
type Memory struct {
	interval   time.Duration
	maxEntries int
	now        Clock

	mu      sync.Mutex
	expires map[int64]time.Time
}

// MemoryOption configures a Memory gate.
type MemoryOption func(*Memory)

// WithClock replaces time.Now.
func WithClock(c Clock) MemoryOption {
	return func(m *Memory) { m.now = c }
}

// WithMaxEntries caps the number of tracked users.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// NewMemory creates a memory gate.
func NewMemory(interval time.Duration, opts ...MemoryOption) *Memory {
	if interval <= 0 {
		interval = DefaultInterval
	}
	m := &Memory{
		interval:   interval,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		expires:    make(map[int64]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Gate = (*Memory)(nil)

// Allow records the event and reports whether it may proceed.
func (m *Memory) Allow(_ context.Context, userID int64) bool {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.expires[userID]; ok && now.Before(exp) {
		return false
	}
	if _, ok := m.expires[userID]; !ok && len(m.expires) >= m.maxEntries {
		m.evict(now)
	}
	m.expires[userID] = now.Add(m.interval)
	return true
}

// Len returns the number of tracked users.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.expires)
}

// Sweep drops expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropExpired(now)
}

// evict frees at least one slot: expired entries first, then the entry
// closest to expiry. Caller holds mu.
func (m *Memory) evict(now time.Time) {
	if m.dropExpired(now) > 0 {
		return
	}
	var oldestID int64
	var oldest time.Time
	first := true
	for id, exp := range m.expires {
		if first || exp.Before(oldest) {
			oldestID, oldest, first = id, exp, false
		}
	}
	if !first {
		delete(m.expires, oldestID)
	}
}

func (m *Memory) dropExpired(now time.Time) int {
	removed := 0
	for id, exp := range m.expires {
		if !now.Before(exp) {
			delete(m.expires, id)
			removed++
		}
	}
	return removed
}

// Redis shares the cooldown between processes with SET NX PX.
// Redis errors let the event through.
type Redis struct {
	client   redis.Cmdable
	interval time.Duration
	prefix   string
	logger   *slog.Logger
}

// RedisOption configures a Redis gate.
type RedisOption func(*Redis)

// WithLogger sets the logger used for Redis failures.
func WithLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = logger }
}

// WithKeyPrefix overrides the "cooldown:" key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// NewRedis creates a gate on top of an existing client.
func NewRedis(client redis.Cmdable, interval time.Duration, opts ...RedisOption) *Redis {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Redis{
		client:   client,
		interval: interval,
		prefix:   "cooldown:",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ Gate = (*Redis)(nil)

// Allow sets the user's key only if absent. An existing key means the user
// is still cooling down.
func (r *Redis) Allow(ctx context.Context, userID int64) bool {
	key := r.prefix + strconv.FormatInt(userID, 10)
	ok, err := r.client.SetNX(ctx, key, 1, r.interval).Result()
	if err != nil {
		r.logger.Warn("cooldown check failed, allowing event",
			"user_id", userID,
			"error", err,
		)
		return true
	}
	return ok
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// LimiterConfig holds keyed limiter configuration.
type LimiterConfig struct {
	GlobalRPS   float64 // Global requests per second
	GlobalBurst int     // Global burst size
	KeyRPS      float64 // Per-key requests per second
	KeyBurst    int     // Per-key burst size
	MaxKeys     int     // Cap on tracked keys; 0 = 10000
	IdleTTL     time.Duration
}

// DefaultLimiterConfig returns Telegram's documented send limits.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		GlobalRPS:   30,
		GlobalBurst: 10,
		KeyRPS:      1,
		KeyBurst:    3,
		MaxKeys:     10000,
		IdleTTL:     10 * time.Minute,
	}
}

// KeyedLimiter paces calls globally and per key (chat id).
// It only delays; it never drops or resends a call.
type KeyedLimiter struct {
	cfg    LimiterConfig
	global *rate.Limiter
	mu     sync.RWMutex
	keys   map[string]*keyEntry
}

type keyEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // UnixNano
}

// NewKeyedLimiter creates a limiter.
func NewKeyedLimiter(cfg LimiterConfig) *KeyedLimiter {
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &KeyedLimiter{
		cfg:    cfg,
		global: rate.NewLimiter(rate.Limit(cfg.GlobalRPS), cfg.GlobalBurst),
		keys:   make(map[string]*keyEntry),
	}
}

// Wait blocks until both the key and the global budget allow one call.
// An empty key only consumes the global budget.
func (l *KeyedLimiter) Wait(ctx context.Context, key string) error {
	if key != "" {
		if err := l.get(key).Wait(ctx); err != nil {
			return err
		}
	}
	return l.global.Wait(ctx)
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.keys)
}

// Sweep drops keys idle for longer than IdleTTL.
func (l *KeyedLimiter) Sweep(now time.Time) int {
	if l.cfg.IdleTTL <= 0 {
		return 0
	}
	threshold := now.Add(-l.cfg.IdleTTL).UnixNano()

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for k, e := range l.keys {
		if e.lastUsed.Load() < threshold {
			delete(l.keys, k)
			removed++
		}
	}
	return removed
}

func (l *KeyedLimiter) get(key string) *rate.Limiter {
	now := time.Now().UnixNano()

	l.mu.RLock()
	e, ok := l.keys[key]
	l.mu.RUnlock()
	if ok {
		e.lastUsed.Store(now)
		return e.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok = l.keys[key]; ok {
		e.lastUsed.Store(now)
		return e.limiter
	}

	if len(l.keys) >= l.cfg.MaxKeys {
		var oldestKey string
		oldest := now
		for k, v := range l.keys {
			if t := v.lastUsed.Load(); t < oldest {
				oldest = t
				oldestKey = k
			}
		}
		if oldestKey != "" {
			delete(l.keys, oldestKey)
		}
	}

	e = &keyEntry{limiter: rate.NewLimiter(rate.Limit(l.cfg.KeyRPS), l.cfg.KeyBurst)}
	e.lastUsed.Store(now)
	l.keys[key] = e
	return e.limiter
}

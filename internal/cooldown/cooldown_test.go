package cooldown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemory_SecondEventInsideIntervalDropped(t *testing.T) {
	clock := newFakeClock()
	g := NewMemory(DefaultInterval, WithClock(clock.Now))
	ctx := context.Background()

	assert.True(t, g.Allow(ctx, 1))
	clock.Advance(100 * time.Millisecond)
	assert.False(t, g.Allow(ctx, 1), "event 0.1s later must be dropped")
}

func TestMemory_AllowsAfterInterval(t *testing.T) {
	clock := newFakeClock()
	g := NewMemory(DefaultInterval, WithClock(clock.Now))
	ctx := context.Background()

	assert.True(t, g.Allow(ctx, 1))
	clock.Advance(DefaultInterval)
	assert.True(t, g.Allow(ctx, 1))
}

func TestMemory_DroppedEventDoesNotExtend(t *testing.T) {
	clock := newFakeClock()
	g := NewMemory(DefaultInterval, WithClock(clock.Now))
	ctx := context.Background()

	require.True(t, g.Allow(ctx, 1))
	clock.Advance(400 * time.Millisecond)
	require.False(t, g.Allow(ctx, 1))
	clock.Advance(100 * time.Millisecond)
	assert.True(t, g.Allow(ctx, 1))
}

func TestMemory_UsersIndependent(t *testing.T) {
	g := NewMemory(time.Hour)
	ctx := context.Background()

	assert.True(t, g.Allow(ctx, 1))
	assert.True(t, g.Allow(ctx, 2))
	assert.False(t, g.Allow(ctx, 1))
}

func TestMemory_BoundedEvictsExpiredFirst(t *testing.T) {
	clock := newFakeClock()
	g := NewMemory(time.Second, WithClock(clock.Now), WithMaxEntries(2))
	ctx := context.Background()

	g.Allow(ctx, 1)
	clock.Advance(2 * time.Second)
	g.Allow(ctx, 2)
	g.Allow(ctx, 3) // evicts expired user 1

	assert.Equal(t, 2, g.Len())
	assert.False(t, g.Allow(ctx, 2))
	assert.False(t, g.Allow(ctx, 3))
}

func TestMemory_BoundedEvictsOldest(t *testing.T) {
	clock := newFakeClock()
	g := NewMemory(time.Minute, WithClock(clock.Now), WithMaxEntries(2))
	ctx := context.Background()

	g.Allow(ctx, 1)
	clock.Advance(time.Second)
	g.Allow(ctx, 2)
	clock.Advance(time.Second)
	g.Allow(ctx, 3) // evicts user 1

	assert.Equal(t, 2, g.Len())
	assert.True(t, g.Allow(ctx, 1), "evicted user starts fresh")
}

func TestMemory_Sweep(t *testing.T) {
	clock := newFakeClock()
	g := NewMemory(time.Second, WithClock(clock.Now))
	ctx := context.Background()

	g.Allow(ctx, 1)
	g.Allow(ctx, 2)
	clock.Advance(2 * time.Second)
	g.Allow(ctx, 3)

	assert.Equal(t, 2, g.Sweep())
	assert.Equal(t, 1, g.Len())
}

// stubRedis implements the SetNX part of redis.Cmdable.
type stubRedis struct {
	redis.Cmdable
	mu   sync.Mutex
	keys map[string]time.Duration
	err  error
}

func (s *stubRedis) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "set", key, value, "px", expiration.Milliseconds(), "nx")
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	s.keys[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func TestRedis_SetNXSemantics(t *testing.T) {
	stub := &stubRedis{keys: map[string]time.Duration{}}
	g := NewRedis(stub, 0)
	ctx := context.Background()

	assert.True(t, g.Allow(ctx, 42))
	assert.False(t, g.Allow(ctx, 42))
	assert.Equal(t, DefaultInterval, stub.keys["cooldown:42"])
}

func TestRedis_FailsOpen(t *testing.T) {
	stub := &stubRedis{keys: map[string]time.Duration{}, err: errors.New("connection refused")}
	g := NewRedis(stub, time.Second, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	assert.True(t, g.Allow(context.Background(), 1))
	assert.True(t, g.Allow(context.Background(), 1))
}

func TestRedis_KeyPrefix(t *testing.T) {
	stub := &stubRedis{keys: map[string]time.Duration{}}
	g := NewRedis(stub, time.Second, WithKeyPrefix("pb:cd:"))

	g.Allow(context.Background(), 7)
	_, ok := stub.keys["pb:cd:7"]
	assert.True(t, ok)
}

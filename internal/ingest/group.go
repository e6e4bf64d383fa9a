package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/prilive-com/packbot/internal/resilience"
)

// DefaultSettleDelay is how long a media-group item holds its slot after
// processing, so the next item of the group reaches Telegram later.
const DefaultSettleDelay = time.Second

// GroupSerializer runs the items of a media group one at a time, in the
// order their tickets were taken.
type GroupSerializer struct {
	settle  time.Duration
	sleeper resilience.Sleeper

	mu     sync.Mutex
	groups map[string]*groupEntry
}

type groupEntry struct {
	tail chan struct{}
	refs int
}

// NewGroupSerializer creates a registry. A nil sleeper means real time.
func NewGroupSerializer(settle time.Duration, sleeper resilience.Sleeper) *GroupSerializer {
	if sleeper == nil {
		sleeper = resilience.RealSleeper{}
	}
	return &GroupSerializer{
		settle:  settle,
		sleeper: sleeper,
		groups:  make(map[string]*groupEntry),
	}
}

// Ticket is one item's place in its group queue. A nil Ticket is valid and
// stands for an item outside any group.
type Ticket struct {
	s     *GroupSerializer
	group string
	prev  <-chan struct{}
	done  chan struct{}
	once  sync.Once
}

// Acquire queues an item of group. It must be called in update order,
// before the item is handed to a goroutine.
func (s *GroupSerializer) Acquire(group string) *Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.groups[group]
	if !ok {
		closed := make(chan struct{})
		close(closed)
		e = &groupEntry{tail: closed}
		s.groups[group] = e
	}
	t := &Ticket{s: s, group: group, prev: e.tail, done: make(chan struct{})}
	e.tail = t.done
	e.refs++
	return t
}

// Groups returns the number of groups with queued items.
func (s *GroupSerializer) Groups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groups)
}

// Group returns the media group id, or "" for a nil ticket.
func (t *Ticket) Group() string {
	if t == nil {
		return ""
	}
	return t.group
}

// Wait blocks until the previous item of the group has released.
func (t *Ticket) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	select {
	case <-t.prev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settle holds the slot for the settle delay.
func (t *Ticket) Settle(ctx context.Context) {
	if t == nil || t.s.settle <= 0 {
		return
	}
	_ = t.s.sleeper.Sleep(ctx, t.s.settle)
}

// Last reports whether no other item of the group is still queued.
func (t *Ticket) Last() bool {
	if t == nil {
		return true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	e, ok := t.s.groups[t.group]
	return !ok || e.refs <= 1
}

// Release hands the slot to the next item. If the ticket gave up before
// its turn, the hand-over still happens only after the predecessor
// releases. Release is idempotent.
func (t *Ticket) Release() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		select {
		case <-t.prev:
			t.finish()
		default:
			go func() {
				<-t.prev
				t.finish()
			}()
		}
	})
}

func (t *Ticket) finish() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	close(t.done)
	if e, ok := t.s.groups[t.group]; ok {
		e.refs--
		if e.refs <= 0 {
			delete(t.s.groups, t.group)
		}
	}
}

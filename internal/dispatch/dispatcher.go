// Package dispatch routes Telegram updates to the pack dialogue and the
// media pipeline.
//
// Every update passes the cooldown in arrival order. Media-group items take
// their place in the group queue before the handler goroutine starts, so
// album items keep their order even though handlers run concurrently.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/prilive-com/packbot/internal/access"
	"github.com/prilive-com/packbot/internal/cooldown"
	"github.com/prilive-com/packbot/internal/ingest"
	"github.com/prilive-com/packbot/internal/packs"
	"github.com/prilive-com/packbot/sender"
	"github.com/prilive-com/packbot/tg"
)

// DefaultGroupGrace is how long the later items of an admitted media group
// bypass the cooldown.
const DefaultGroupGrace = 30 * time.Second

// API is the part of the Bot API client the handlers call.
type API interface {
	Send(ctx context.Context, chatID int64, text string, opts ...sender.SendOption) (*tg.Message, error)
	EditMessageText(ctx context.Context, req sender.EditMessageTextRequest) error
	EditMessageReplyMarkup(ctx context.Context, req sender.EditMessageReplyMarkupRequest) error
	DeleteMessage(ctx context.Context, req sender.DeleteMessageRequest) error
	Answer(ctx context.Context, cb *tg.CallbackQuery, opts ...sender.AnswerOption) error
	DeleteStickerFromSet(ctx context.Context, sticker string) error
}

// MediaProcessor ingests one media item.
type MediaProcessor interface {
	Process(ctx context.Context, item ingest.Item) ingest.Result
}

// Dispatcher owns the handler goroutines.
type Dispatcher struct {
	api      API
	packs    *packs.Controller
	removals *packs.Removals
	media    MediaProcessor
	groups   *ingest.GroupSerializer
	cooldown cooldown.Gate
	gate     *access.Gate
	grace    time.Duration
	now      func() time.Time
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	inFlight atomic.Int64

	mu       sync.Mutex // guards admitted
	admitted map[string]time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithCooldown drops updates arriving faster than the gate allows.
func WithCooldown(g cooldown.Gate) Option {
	return func(d *Dispatcher) { d.cooldown = g }
}

// WithAccessGate requires channel membership.
func WithAccessGate(g *access.Gate) Option {
	return func(d *Dispatcher) { d.gate = g }
}

// WithGroupGrace overrides DefaultGroupGrace.
func WithGroupGrace(grace time.Duration) Option {
	return func(d *Dispatcher) {
		if grace > 0 {
			d.grace = grace
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New creates a dispatcher. groups may be nil, in which case a serializer
// with the default settle delay is used.
func New(api API, ctrl *packs.Controller, removals *packs.Removals, media MediaProcessor, groups *ingest.GroupSerializer, opts ...Option) *Dispatcher {
	if groups == nil {
		groups = ingest.NewGroupSerializer(ingest.DefaultSettleDelay, nil)
	}
	d := &Dispatcher{
		api:      api,
		packs:    ctrl,
		removals: removals,
		media:    media,
		groups:   groups,
		grace:    DefaultGroupGrace,
		now:      time.Now,
		logger:   slog.Default(),
		admitted: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(d)
	}
	// Handlers outlive the receive loop so Shutdown can drain them.
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// Run dispatches updates until the channel closes or ctx is done.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tg.Update) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			d.Dispatch(u)
		}
	}
}

// Dispatch admits one update and hands it to a handler goroutine. It must
// be called in update order.
func (d *Dispatcher) Dispatch(u tg.Update) {
	from := u.Sender()
	if from == nil {
		return
	}
	if !d.admit(u, from.ID) {
		d.logger.Debug("update dropped by cooldown", "update_id", u.UpdateID, "user_id", from.ID)
		return
	}

	var ticket *ingest.Ticket
	if m := u.Message; m != nil && m.MediaGroupID != "" && ingest.IsMedia(m) {
		ticket = d.groups.Acquire(m.MediaGroupID)
	}

	logger := d.logger.With(
		"trace_id", uuid.NewString(),
		"update_id", u.UpdateID,
		"user_id", from.ID,
	)

	d.inFlight.Add(1)
	d.wg.Go(func() {
		defer d.inFlight.Add(-1)
		defer ticket.Release()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("handler panic",
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		d.handle(d.ctx, logger, u, from.ID, ticket)
	})
}

// InFlight returns the number of running handlers.
func (d *Dispatcher) InFlight() int64 {
	return d.inFlight.Load()
}

// Shutdown waits for running handlers. When ctx expires first the handlers
// are cancelled and ctx's error is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

// SweepGroups forgets admitted media groups older than the grace period.
func (d *Dispatcher) SweepGroups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sweepLocked(d.now())
}

// admit applies the cooldown. Items of a media group whose first item was
// admitted skip it, otherwise an album would lose everything but its first
// picture.
func (d *Dispatcher) admit(u tg.Update, userID int64) bool {
	var group string
	if u.Message != nil {
		group = u.Message.MediaGroupID
	}

	if group != "" {
		d.mu.Lock()
		seen, ok := d.admitted[group]
		d.mu.Unlock()
		if ok && d.now().Sub(seen) < d.grace {
			return true
		}
	}

	if d.cooldown != nil && !d.cooldown.Allow(d.ctx, userID) {
		return false
	}

	if group != "" {
		d.mu.Lock()
		now := d.now()
		d.sweepLocked(now)
		d.admitted[group] = now
		d.mu.Unlock()
	}
	return true
}

func (d *Dispatcher) sweepLocked(now time.Time) int {
	n := 0
	for g, seen := range d.admitted {
		if now.Sub(seen) >= d.grace {
			delete(d.admitted, g)
			n++
		}
	}
	return n
}

func (d *Dispatcher) handle(ctx context.Context, logger *slog.Logger, u tg.Update, userID int64, ticket *ingest.Ticket) {
	switch {
	case u.Message != nil:
		d.onMessage(ctx, logger, u.Message, userID, ticket)
	case u.CallbackQuery != nil:
		d.onCallback(ctx, logger, u.CallbackQuery, userID)
	}
}

func (d *Dispatcher) send(ctx context.Context, logger *slog.Logger, chatID int64, text string, opts ...sender.SendOption) {
	if _, err := d.api.Send(ctx, chatID, text, opts...); err != nil {
		logger.Warn("send failed", "chat_id", chatID, "error", err)
	}
}

func (d *Dispatcher) answer(ctx context.Context, logger *slog.Logger, cb *tg.CallbackQuery, opts ...sender.AnswerOption) {
	if err := d.api.Answer(ctx, cb, opts...); err != nil {
		logger.Warn("answer callback failed", "error", err)
	}
}

func (d *Dispatcher) deleteMessage(ctx context.Context, logger *slog.Logger, msg *tg.Message) {
	if msg == nil {
		return
	}
	chatID, msgID := msg.Sig()
	err := d.api.DeleteMessage(ctx, sender.DeleteMessageRequest{ChatID: chatID, MessageID: msgID})
	if err != nil {
		logger.Debug("delete message failed", "chat_id", chatID, "error", err)
	}
}

// isContextErr reports errors caused by shutdown rather than by the request.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

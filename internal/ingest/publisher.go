package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prilive-com/packbot/internal/media"
	"github.com/prilive-com/packbot/internal/resilience"
	"github.com/prilive-com/packbot/internal/store"
	"github.com/prilive-com/packbot/sender"
	"github.com/prilive-com/packbot/tg"
)

// Outcome is the terminal state of a publish attempt.
type Outcome int

const (
	Failed Outcome = iota
	Appended
	RateLimitedThenAppended
	CreatedInstead
)

func (o Outcome) String() string {
	switch o {
	case Appended:
		return "appended"
	case RateLimitedThenAppended:
		return "rate_limited_then_appended"
	case CreatedInstead:
		return "created_instead"
	default:
		return "failed"
	}
}

// Succeeded reports whether the sticker reached the set.
func (o Outcome) Succeeded() bool { return o != Failed }

// PublishResult is the outcome of Publisher.Publish. Err is set when
// Outcome is Failed.
type PublishResult struct {
	Outcome Outcome
	Err     *Error
}

// StickerAPI is the part of the Bot API client the publisher drives.
type StickerAPI interface {
	AddStickerToSet(ctx context.Context, req sender.AddStickerToSetRequest) error
	CreateNewStickerSet(ctx context.Context, req sender.CreateNewStickerSetRequest) error
}

// Publisher pushes one artifact into a pack's remote sticker set.
//
// The append is tried first. A rate limit is waited out exactly once and
// the append repeated. A missing set is created seeded with the artifact.
// Creation is never retried.
type Publisher struct {
	api     StickerAPI
	sleeper resilience.Sleeper
	emoji   string
	logger  *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithSleeper replaces the sleeper used to honor retry_after.
func WithSleeper(s resilience.Sleeper) PublisherOption {
	return func(p *Publisher) { p.sleeper = s }
}

// WithEmoji sets the emoji attached to every sticker.
func WithEmoji(e string) PublisherOption {
	return func(p *Publisher) {
		if e != "" {
			p.emoji = e
		}
	}
}

// WithPublisherLogger sets the logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher creates a publisher.
func NewPublisher(api StickerAPI, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		api:     api,
		sleeper: resilience.RealSleeper{},
		emoji:   "😀",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish runs the append-or-create state machine.
func (p *Publisher) Publish(ctx context.Context, userID int64, pack store.Pack, art media.Artifact) PublishResult {
	sticker := sender.InputSticker{
		Sticker:   sender.FromBytes(art.Data, art.FileName),
		Format:    art.Format,
		EmojiList: []string{p.emoji},
	}
	appendOnce := func() error {
		return p.api.AddStickerToSet(ctx, sender.AddStickerToSetRequest{
			UserID:  userID,
			Name:    pack.Name,
			Sticker: sticker,
		})
	}

	err := appendOnce()
	if err == nil {
		return PublishResult{Outcome: Appended}
	}

	if wait, limited := tg.RetryAfterOf(err); limited {
		p.logger.Info("append rate limited, waiting",
			"user_id", userID,
			"pack_id", pack.ID,
			"retry_after", wait,
		)
		if sleepErr := p.sleeper.Sleep(ctx, wait); sleepErr != nil {
			return PublishResult{Outcome: Failed, Err: fail(KindRemoteRateLimited, sleepErr)}
		}
		err = appendOnce()
		if err == nil {
			return PublishResult{Outcome: RateLimitedThenAppended}
		}
		if _, again := tg.RetryAfterOf(err); again {
			return PublishResult{Outcome: Failed, Err: fail(KindRemoteRateLimited, err)}
		}
	}

	if !errors.Is(err, tg.ErrStickerSetInvalid) {
		return PublishResult{Outcome: Failed, Err: fail(KindRemoteAPI, err)}
	}

	p.logger.Info("sticker set missing, creating",
		"user_id", userID,
		"pack_id", pack.ID,
		"set", pack.Name,
	)
	err = p.api.CreateNewStickerSet(ctx, sender.CreateNewStickerSetRequest{
		UserID:      userID,
		Name:        pack.Name,
		Title:       pack.Title,
		Stickers:    []sender.InputSticker{sticker},
		StickerType: string(pack.Type),
	})
	if err != nil {
		return PublishResult{Outcome: Failed, Err: fail(KindRemoteAPI, err)}
	}
	return PublishResult{Outcome: CreatedInstead}
}

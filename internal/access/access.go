// Package access gates bot usage on membership in a configured channel.
package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prilive-com/packbot/tg"
)

// ErrNotConfigured is returned by Recheck when no channel is set up.
var ErrNotConfigured = errors.New("packbot/access: channel not configured")

// Decision is the outcome of a membership check.
type Decision int

const (
	Allowed Decision = iota
	Blocked
)

func (d Decision) String() string {
	if d == Blocked {
		return "blocked"
	}
	return "allowed"
}

// MemberLookup is the part of the Bot API client the gate needs.
type MemberLookup interface {
	GetChatMember(ctx context.Context, chatID tg.ChatID, userID int64) (tg.ChatMember, error)
}

// Gate checks channel membership. A zero channel disables it.
type Gate struct {
	api        MemberLookup
	channelID  int64
	channelURL string
	logger     *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// New creates a gate. The gate is enabled only when both channelID and
// channelURL are set.
func New(api MemberLookup, channelID int64, channelURL string, opts ...Option) *Gate {
	g := &Gate{
		api:        api,
		channelID:  channelID,
		channelURL: channelURL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Enabled reports whether the gate is configured.
func (g *Gate) Enabled() bool {
	return g != nil && g.channelID != 0 && g.channelURL != ""
}

// ChannelURL is the join link shown in the prompt.
func (g *Gate) ChannelURL() string {
	return g.channelURL
}

// Check blocks users whose status is left, kicked or banned. Lookup errors
// allow the user through.
func (g *Gate) Check(ctx context.Context, userID int64) Decision {
	if !g.Enabled() {
		return Allowed
	}
	blocked, err := g.blocked(ctx, userID)
	if err != nil {
		g.logger.Warn("membership check failed, allowing user",
			"user_id", userID,
			"channel_id", g.channelID,
			"error", err,
		)
		return Allowed
	}
	if blocked {
		return Blocked
	}
	return Allowed
}

// Recheck is used by the "I subscribed" button. Unlike Check it reports
// lookup errors so the user sees them.
func (g *Gate) Recheck(ctx context.Context, userID int64) (Decision, error) {
	if !g.Enabled() {
		return Allowed, ErrNotConfigured
	}
	blocked, err := g.blocked(ctx, userID)
	if err != nil {
		return Allowed, err
	}
	if blocked {
		return Blocked, nil
	}
	return Allowed, nil
}

func (g *Gate) blocked(ctx context.Context, userID int64) (bool, error) {
	member, err := g.api.GetChatMember(ctx, g.channelID, userID)
	if err != nil {
		return false, err
	}
	switch member.Status() {
	case "left", "kicked", "banned":
		return true, nil
	}
	return false, nil
}

// Package packs drives the pack creation dialogue and the selection and
// deletion of a user's current pack.
package packs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prilive-com/packbot/internal/store"
)

// Sentinel errors - use with errors.Is()
var (
	ErrNoDraft       = errors.New("packbot/packs: no pack creation in progress")
	ErrInvalidTitle  = errors.New("packbot/packs: title must be 1 to 64 characters")
	ErrInvalidType   = errors.New("packbot/packs: unknown pack type")
	ErrNoCurrentPack = errors.New("packbot/packs: no pack selected")
)

// MaxTitleLength is Telegram's limit on sticker set titles, in characters.
const MaxTitleLength = 64

// Controller owns the per-user dialogue and pack pointer operations.
type Controller struct {
	store       store.Store
	drafts      *DraftStore
	botUsername string
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithClock replaces time.Now for name derivation.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller. botUsername is the bot's username
// without the leading @; it is part of every derived set name.
func NewController(s store.Store, drafts *DraftStore, botUsername string, opts ...Option) *Controller {
	c := &Controller{
		store:       s,
		drafts:      drafts,
		botUsername: strings.TrimPrefix(botUsername, "@"),
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the user's dialogue state.
func (c *Controller) State(userID int64) State {
	d, ok := c.drafts.Get(userID)
	if !ok {
		return Idle
	}
	return d.State
}

// BeginCreate starts a new dialogue, abandoning any previous draft.
func (c *Controller) BeginCreate(userID int64) {
	c.drafts.Put(userID, Draft{State: AwaitingTitle})
}

// SubmitTitle stores the trimmed title and moves on to type selection.
func (c *Controller) SubmitTitle(userID int64, text string) (string, error) {
	d, ok := c.drafts.Get(userID)
	if !ok || d.State != AwaitingTitle {
		return "", ErrNoDraft
	}
	title := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(title); n == 0 || n > MaxTitleLength {
		return "", ErrInvalidTitle
	}
	c.drafts.Put(userID, Draft{State: AwaitingType, Title: title})
	return title, nil
}

// ChooseType persists the pack and makes it current. A store failure keeps
// the draft so the user can press the button again, and a pack whose
// selection failed is deleted again.
func (c *Controller) ChooseType(ctx context.Context, userID int64, typ store.PackType) (store.Pack, error) {
	if !typ.Valid() {
		return store.Pack{}, ErrInvalidType
	}
	d, ok := c.drafts.Get(userID)
	if !ok || d.State != AwaitingType {
		return store.Pack{}, ErrNoDraft
	}

	name := c.PackName(userID)
	id, err := c.store.CreatePack(ctx, userID, name, d.Title, typ)
	if err != nil {
		return store.Pack{}, fmt.Errorf("create pack: %w", err)
	}
	if err := c.store.SetCurrentPackID(ctx, userID, id); err != nil {
		// Roll the pack back so a retry does not leave a second one behind.
		if derr := c.store.DeletePack(ctx, id, userID); derr != nil {
			c.logger.Error("rollback of new pack failed",
				"user_id", userID,
				"pack_id", id,
				"error", derr,
			)
			return store.Pack{}, fmt.Errorf("select new pack: %w", errors.Join(err, derr))
		}
		return store.Pack{}, fmt.Errorf("select new pack: %w", err)
	}
	c.drafts.Delete(userID)

	c.logger.Info("pack created",
		"user_id", userID,
		"pack_id", id,
		"pack_type", string(typ),
	)
	return store.Pack{ID: id, OwnerID: userID, Name: name, Title: d.Title, Type: typ}, nil
}

// PackName derives the remote set name from the user, the clock and the
// bot identity.
func (c *Controller) PackName(userID int64) string {
	return fmt.Sprintf("stickers_%d_%d_by_%s", userID, c.now().Unix(), c.botUsername)
}

// OwnsSet reports whether a sticker set name was derived for userID by
// this bot.
func (c *Controller) OwnsSet(userID int64, setName string) bool {
	return strings.HasPrefix(setName, fmt.Sprintf("stickers_%d_", userID)) &&
		strings.HasSuffix(strings.ToLower(setName), "_by_"+strings.ToLower(c.botUsername))
}

// Select makes packID current. The store rejects packs of other users.
func (c *Controller) Select(ctx context.Context, userID, packID int64) (store.Pack, error) {
	if err := c.store.SetCurrentPackID(ctx, userID, packID); err != nil {
		return store.Pack{}, err
	}
	return c.store.GetPack(ctx, packID)
}

// DeleteResult describes the outcome of DeleteCurrent.
type DeleteResult struct {
	Deleted    store.Pack
	NewCurrent int64
	HasCurrent bool
}

// DeleteCurrent removes the user's current pack and promotes the first
// remaining pack, if any.
func (c *Controller) DeleteCurrent(ctx context.Context, userID int64) (DeleteResult, error) {
	cur, ok, err := c.store.CurrentPackID(ctx, userID)
	if err != nil {
		return DeleteResult{}, err
	}
	if !ok {
		return DeleteResult{}, ErrNoCurrentPack
	}
	pack, err := c.store.GetPack(ctx, cur)
	if err != nil {
		return DeleteResult{}, err
	}
	if err := c.store.DeletePack(ctx, cur, userID); err != nil {
		return DeleteResult{}, err
	}

	res := DeleteResult{Deleted: pack}
	remaining, err := c.store.ListPacks(ctx, userID)
	if err != nil {
		return res, err
	}
	if len(remaining) > 0 {
		if err := c.store.SetCurrentPackID(ctx, userID, remaining[0].ID); err != nil {
			return res, err
		}
		res.NewCurrent, res.HasCurrent = remaining[0].ID, true
	}

	c.logger.Info("pack deleted",
		"user_id", userID,
		"pack_id", pack.ID,
		"promoted", res.NewCurrent,
	)
	return res, nil
}

// Overview is what the main menu renders.
type Overview struct {
	Packs      []store.Pack
	CurrentID  int64
	HasCurrent bool
}

// Overview lists the user's packs and selects the first one when nothing
// is selected yet.
func (c *Controller) Overview(ctx context.Context, userID int64) (Overview, error) {
	packs, err := c.store.ListPacks(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	cur, ok, err := c.store.CurrentPackID(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	if !ok && len(packs) > 0 {
		if err := c.store.SetCurrentPackID(ctx, userID, packs[0].ID); err != nil {
			return Overview{}, err
		}
		cur, ok = packs[0].ID, true
	}
	return Overview{Packs: packs, CurrentID: cur, HasCurrent: ok}, nil
}

// Stats returns how many packs the user has.
func (c *Controller) Stats(ctx context.Context, userID int64) (int, error) {
	return c.store.CountPacks(ctx, userID)
}

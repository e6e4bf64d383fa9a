package packs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/internal/store"
)

var fixedNow = time.Unix(1700000000, 0)

func newTestController(t *testing.T, s store.Store) *Controller {
	t.Helper()
	return NewController(s, NewDraftStore(func() time.Time { return fixedNow }), "@TestBot",
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func createPack(t *testing.T, c *Controller, userID int64, title string, typ store.PackType) store.Pack {
	t.Helper()
	c.BeginCreate(userID)
	_, err := c.SubmitTitle(userID, title)
	require.NoError(t, err)
	p, err := c.ChooseType(context.Background(), userID, typ)
	require.NoError(t, err)
	return p
}

func TestController_CreateFlow(t *testing.T) {
	s := store.NewMemory()
	c := newTestController(t, s)
	ctx := context.Background()

	assert.Equal(t, Idle, c.State(1))
	c.BeginCreate(1)
	assert.Equal(t, AwaitingTitle, c.State(1))

	title, err := c.SubmitTitle(1, "  Cats  ")
	require.NoError(t, err)
	assert.Equal(t, "Cats", title)
	assert.Equal(t, AwaitingType, c.State(1))

	p, err := c.ChooseType(ctx, 1, store.TypeRegular)
	require.NoError(t, err)
	assert.Equal(t, "stickers_1_1700000000_by_TestBot", p.Name)
	assert.Equal(t, "Cats", p.Title)
	assert.Equal(t, Idle, c.State(1))

	cur, ok, err := s.CurrentPackID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, p.ID, cur)
}

func TestController_SubmitTitle_Invalid(t *testing.T) {
	c := newTestController(t, store.NewMemory())

	_, err := c.SubmitTitle(1, "Cats")
	assert.ErrorIs(t, err, ErrNoDraft)

	c.BeginCreate(1)
	_, err = c.SubmitTitle(1, "   ")
	assert.ErrorIs(t, err, ErrInvalidTitle)
	assert.Equal(t, AwaitingTitle, c.State(1))

	_, err = c.SubmitTitle(1, strings.Repeat("я", MaxTitleLength+1))
	assert.ErrorIs(t, err, ErrInvalidTitle)

	_, err = c.SubmitTitle(1, strings.Repeat("я", MaxTitleLength))
	assert.NoError(t, err, "limit counts characters, not bytes")
}

func TestController_ChooseType_WithoutTitle(t *testing.T) {
	c := newTestController(t, store.NewMemory())
	ctx := context.Background()

	_, err := c.ChooseType(ctx, 1, store.TypeRegular)
	assert.ErrorIs(t, err, ErrNoDraft)

	c.BeginCreate(1)
	_, err = c.ChooseType(ctx, 1, store.TypeRegular)
	assert.ErrorIs(t, err, ErrNoDraft)

	_, err = c.ChooseType(ctx, 1, "mask")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestController_BeginCreateAbandonsDraft(t *testing.T) {
	c := newTestController(t, store.NewMemory())
	c.BeginCreate(1)
	_, err := c.SubmitTitle(1, "First")
	require.NoError(t, err)

	c.BeginCreate(1)
	assert.Equal(t, AwaitingTitle, c.State(1))
	_, err = c.ChooseType(context.Background(), 1, store.TypeRegular)
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestController_NameCollisionKeepsDraft(t *testing.T) {
	s := store.NewMemory()
	c := newTestController(t, s)

	createPack(t, c, 1, "A", store.TypeRegular)

	c.BeginCreate(1)
	_, err := c.SubmitTitle(1, "B")
	require.NoError(t, err)
	_, err = c.ChooseType(context.Background(), 1, store.TypeRegular)
	assert.ErrorIs(t, err, store.ErrDuplicateName, "same second, same derived name")
	assert.Equal(t, AwaitingType, c.State(1))

	n, _ := s.CountPacks(context.Background(), 1)
	assert.Equal(t, 1, n)
}

// flakySelectStore fails SetCurrentPackID the given number of times.
type flakySelectStore struct {
	*store.Memory
	failures int
}

func (s *flakySelectStore) SetCurrentPackID(ctx context.Context, userID, packID int64) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	return s.Memory.SetCurrentPackID(ctx, userID, packID)
}

func TestController_ChooseType_SelectFailureRollsBack(t *testing.T) {
	s := &flakySelectStore{Memory: store.NewMemory(), failures: 1}
	c := newTestController(t, s)
	ctx := context.Background()

	c.BeginCreate(1)
	_, err := c.SubmitTitle(1, "Cats")
	require.NoError(t, err)

	_, err = c.ChooseType(ctx, 1, store.TypeRegular)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, AwaitingType, c.State(1), "draft kept for a retry")

	n, err := s.CountPacks(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n, "no pack left behind")

	p, err := c.ChooseType(ctx, 1, store.TypeRegular)
	require.NoError(t, err)

	n, err = s.CountPacks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cur, ok, err := s.CurrentPackID(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.ID, cur)
}

func TestController_DeleteCurrent(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	now := fixedNow
	c := NewController(s, NewDraftStore(nil), "TestBot",
		WithClock(func() time.Time { now = now.Add(time.Second); return now }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	first := createPack(t, c, 1, "one", store.TypeRegular)
	second := createPack(t, c, 1, "two", store.TypeCustomEmoji)

	res, err := c.DeleteCurrent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, res.Deleted.ID)
	assert.True(t, res.HasCurrent)
	assert.Equal(t, first.ID, res.NewCurrent)

	cur, ok, _ := s.CurrentPackID(ctx, 1)
	assert.True(t, ok)
	assert.Equal(t, first.ID, cur)

	res, err = c.DeleteCurrent(ctx, 1)
	require.NoError(t, err)
	assert.False(t, res.HasCurrent)

	_, ok, _ = s.CurrentPackID(ctx, 1)
	assert.False(t, ok, "pointer cleared when nothing remains")

	_, err = c.DeleteCurrent(ctx, 1)
	assert.ErrorIs(t, err, ErrNoCurrentPack)
}

func TestController_SelectAndOverview(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	c := newTestController(t, s)

	a, err := s.CreatePack(ctx, 1, "a_by_TestBot", "A", store.TypeRegular)
	require.NoError(t, err)
	b, err := s.CreatePack(ctx, 1, "b_by_TestBot", "B", store.TypeRegular)
	require.NoError(t, err)
	foreign, err := s.CreatePack(ctx, 2, "c_by_TestBot", "C", store.TypeRegular)
	require.NoError(t, err)

	ov, err := c.Overview(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ov.Packs, 2)
	assert.True(t, ov.HasCurrent)
	assert.Equal(t, a, ov.CurrentID, "first pack auto-selected")

	p, err := c.Select(ctx, 1, b)
	require.NoError(t, err)
	assert.Equal(t, "B", p.Title)

	_, err = c.Select(ctx, 1, foreign)
	assert.True(t, errors.Is(err, store.ErrNotOwner))

	ov, err = c.Overview(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, b, ov.CurrentID)

	ov, err = c.Overview(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ov.HasCurrent)
	assert.Empty(t, ov.Packs)

	n, err := c.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestController_OwnsSet(t *testing.T) {
	c := newTestController(t, store.NewMemory())

	assert.True(t, c.OwnsSet(42, "stickers_42_1700000000_by_TestBot"))
	assert.True(t, c.OwnsSet(42, "stickers_42_1700000000_by_testbot"))
	assert.False(t, c.OwnsSet(42, "stickers_420_1700000000_by_OtherBot"))
	assert.False(t, c.OwnsSet(4, "stickers_42_1700000000_by_TestBot"))
	assert.False(t, c.OwnsSet(42, "random_set"))
}

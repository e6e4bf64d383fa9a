package access

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/tg"
)

type fakeLookup struct {
	member tg.ChatMember
	err    error
	calls  int
	chat   tg.ChatID
}

func (f *fakeLookup) GetChatMember(_ context.Context, chatID tg.ChatID, _ int64) (tg.ChatMember, error) {
	f.calls++
	f.chat = chatID
	return f.member, f.err
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGate_DisabledAllowsWithoutLookup(t *testing.T) {
	api := &fakeLookup{}
	for _, g := range []*Gate{
		New(api, 0, "https://t.me/c"),
		New(api, -100, ""),
	} {
		assert.False(t, g.Enabled())
		assert.Equal(t, Allowed, g.Check(context.Background(), 1))
	}
	assert.Zero(t, api.calls)
}

func TestGate_Statuses(t *testing.T) {
	tests := []struct {
		name   string
		member tg.ChatMember
		want   Decision
	}{
		{"member", tg.ChatMemberMember{}, Allowed},
		{"owner", tg.ChatMemberOwner{}, Allowed},
		{"administrator", tg.ChatMemberAdministrator{}, Allowed},
		{"restricted", tg.ChatMemberRestricted{}, Allowed},
		{"left", tg.ChatMemberLeft{}, Blocked},
		{"kicked", tg.ChatMemberBanned{}, Blocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeLookup{member: tt.member}
			g := New(api, -1001, "https://t.me/c", quiet())
			assert.Equal(t, tt.want, g.Check(context.Background(), 5))
			assert.Equal(t, int64(-1001), api.chat)
		})
	}
}

func TestGate_FailsOpen(t *testing.T) {
	g := New(&fakeLookup{err: errors.New("boom")}, -1001, "https://t.me/c", quiet())
	assert.Equal(t, Allowed, g.Check(context.Background(), 5))
}

func TestGate_Recheck(t *testing.T) {
	_, err := New(&fakeLookup{}, 0, "").Recheck(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotConfigured)

	boom := errors.New("boom")
	_, err = New(&fakeLookup{err: boom}, -1, "u").Recheck(context.Background(), 1)
	assert.ErrorIs(t, err, boom)

	d, err := New(&fakeLookup{member: tg.ChatMemberLeft{}}, -1, "u").Recheck(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Blocked, d)

	d, err = New(&fakeLookup{member: tg.ChatMemberMember{}}, -1, "u").Recheck(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Allowed, d)
	assert.Equal(t, "allowed", d.String())
}

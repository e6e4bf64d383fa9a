package sender

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/tg"
)

func TestIsBreakerSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"sticker rate limit", tg.NewAPIError("addStickerToSet", 429, "Too Many Requests: retry after 7"), true},
		{"set missing", tg.NewAPIError("addStickerToSet", 400, "Bad Request: STICKERSET_INVALID"), true},
		{"name occupied", tg.NewAPIError("createNewStickerSet", 400, "Bad Request: sticker set name is already occupied"), true},
		{"member lookup forbidden", tg.NewAPIError("getChatMember", 403, "Forbidden: bot is not a member of the channel chat"), true},
		{"wrapped client error", fmt.Errorf("append: %w", tg.NewAPIError("addStickerToSet", 400, "Bad Request: STICKERS_TOO_MUCH")), true},
		{"file gateway error", tg.NewAPIError("getFile", 502, "Bad Gateway"), false},
		{"delete server error", tg.NewAPIError("deleteStickerFromSet", 500, "Internal Server Error"), false},
		{"network", fmt.Errorf("dial tcp: connection refused"), false},
		{"cancelled", context.Canceled, true},
		{"deadline", fmt.Errorf("getFile: %w", context.DeadlineExceeded), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBreakerSuccess(tt.err))
		})
	}
}

func TestClient_TransportErrorsHideToken(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	cfg := DefaultConfig()
	cfg.Token = tg.SecretToken("123456789:ABCdefGHIjklMNOpqrSTUvwxYZ")
	cfg.BaseURL = baseURL
	client, err := NewFromConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	calls := map[string]func() error{
		"getFile": func() error {
			_, err := client.GetFile(ctx, "file_1")
			return err
		},
		"download": func() error {
			_, err := client.DownloadFile(ctx, "photos/file_1.jpg")
			return err
		},
		"addStickerToSet": func() error {
			return client.AddStickerToSet(ctx, AddStickerToSetRequest{
				UserID: 1,
				Name:   "stickers_1_2_by_testbot",
				Sticker: InputSticker{
					Sticker:   FromBytes([]byte("png"), "sticker.png"),
					Format:    FormatStatic,
					EmojiList: []string{"😀"},
				},
			})
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.NotContains(t, err.Error(), cfg.Token.Value())
			assert.NotContains(t, err.Error(), "ABCdef")
		})
	}
}

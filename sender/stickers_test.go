package sender_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/internal/testutil"
	"github.com/prilive-com/packbot/sender"
	"github.com/prilive-com/packbot/tg"
)

func pngSticker() sender.InputSticker {
	return sender.InputSticker{
		Sticker:   sender.FromBytes([]byte("png-bytes"), "sticker.png"),
		Format:    sender.FormatStatic,
		EmojiList: []string{"😀"},
	}
}

func TestAddStickerToSet_UploadsAttachment(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnAPI("addStickerToSet", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyBool(w, true)
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	err := client.AddStickerToSet(context.Background(), sender.AddStickerToSetRequest{
		UserID:  testutil.TestUserID,
		Name:    "stickers_987654321_1700000000_by_testbot",
		Sticker: pngSticker(),
	})
	require.NoError(t, err)

	cap := server.LastCapture()
	cap.AssertContentType(t, "multipart/form-data")
	assert.Equal(t, "stickers_987654321_1700000000_by_testbot", cap.MultipartField(t, "name"))
	assert.Equal(t, "987654321", cap.MultipartField(t, "user_id"))

	var sticker map[string]any
	require.NoError(t, json.Unmarshal([]byte(cap.MultipartField(t, "sticker")), &sticker))
	assert.Equal(t, "attach://sticker_file_0", sticker["sticker"])
	assert.Equal(t, "static", sticker["format"])
	assert.Equal(t, []any{"😀"}, sticker["emoji_list"])

	data, name := cap.MultipartFile(t, "sticker_file_0")
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "sticker.png", name)
}

func TestAddStickerToSet_SetInvalid(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnAPI("addStickerToSet", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyStickerSetInvalid(w)
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	err := client.AddStickerToSet(context.Background(), sender.AddStickerToSetRequest{
		UserID:  testutil.TestUserID,
		Name:    "stickers_1_2_by_testbot",
		Sticker: pngSticker(),
	})
	assert.ErrorIs(t, err, tg.ErrStickerSetInvalid)
}

func TestAddStickerToSet_RateLimitSurfacesRetryAfter(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnAPI("addStickerToSet", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyRateLimit(w, 2)
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	err := client.AddStickerToSet(context.Background(), sender.AddStickerToSetRequest{
		UserID:  testutil.TestUserID,
		Name:    "stickers_1_2_by_testbot",
		Sticker: pngSticker(),
	})
	d, ok := tg.RetryAfterOf(err)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
	assert.Len(t, server.CapturesFor("addStickerToSet"), 1)
}

func TestAddStickerToSet_Validation(t *testing.T) {
	server := testutil.NewMockServer(t)
	client := testutil.NewTestClient(t, server.BaseURL())

	bad := pngSticker()
	bad.Format = "animated"
	err := client.AddStickerToSet(context.Background(), sender.AddStickerToSetRequest{
		UserID: testutil.TestUserID, Name: "n", Sticker: bad,
	})
	var vErr *tg.ValidationError
	assert.True(t, errors.As(err, &vErr))

	noEmoji := pngSticker()
	noEmoji.EmojiList = nil
	err = client.AddStickerToSet(context.Background(), sender.AddStickerToSetRequest{
		UserID: testutil.TestUserID, Name: "n", Sticker: noEmoji,
	})
	assert.Error(t, err)

	err = client.AddStickerToSet(context.Background(), sender.AddStickerToSetRequest{Name: "n", Sticker: pngSticker()})
	assert.Error(t, err)

	assert.Equal(t, 0, server.CaptureCount())
}

func TestCreateNewStickerSet_CustomEmojiVideo(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnAPI("createNewStickerSet", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyBool(w, true)
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	err := client.CreateNewStickerSet(context.Background(), sender.CreateNewStickerSetRequest{
		UserID:      testutil.TestUserID,
		Name:        "stickers_1_2_by_testbot",
		Title:       "Cats",
		StickerType: sender.StickerTypeCustomEmoji,
		Stickers: []sender.InputSticker{{
			Sticker:   sender.FromBytes([]byte("webm"), "sticker.webm"),
			Format:    sender.FormatVideo,
			EmojiList: []string{"😀"},
		}},
	})
	require.NoError(t, err)

	cap := server.LastCapture()
	assert.Equal(t, "Cats", cap.MultipartField(t, "title"))
	assert.Equal(t, "custom_emoji", cap.MultipartField(t, "sticker_type"))

	var stickers []map[string]any
	require.NoError(t, json.Unmarshal([]byte(cap.MultipartField(t, "stickers")), &stickers))
	require.Len(t, stickers, 1)
	assert.Equal(t, "attach://sticker_file_0", stickers[0]["sticker"])
	assert.Equal(t, "video", stickers[0]["format"])

	data, _ := cap.MultipartFile(t, "sticker_file_0")
	assert.Equal(t, "webm", string(data))
}

func TestCreateNewStickerSet_Validation(t *testing.T) {
	server := testutil.NewMockServer(t)
	client := testutil.NewTestClient(t, server.BaseURL())

	base := sender.CreateNewStickerSetRequest{UserID: 1, Name: "n", Title: "t", Stickers: []sender.InputSticker{pngSticker()}}

	noTitle := base
	noTitle.Title = ""
	assert.Error(t, client.CreateNewStickerSet(context.Background(), noTitle))

	empty := base
	empty.Stickers = nil
	assert.Error(t, client.CreateNewStickerSet(context.Background(), empty))

	tooMany := base
	tooMany.Stickers = make([]sender.InputSticker, sender.MaxStickersPerCreate+1)
	assert.Error(t, client.CreateNewStickerSet(context.Background(), tooMany))

	assert.Equal(t, 0, server.CaptureCount())
}

func TestDeleteStickerFromSet(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnAPI("deleteStickerFromSet", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyBool(w, true)
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	require.NoError(t, client.DeleteStickerFromSet(context.Background(), "CAACAgIAAxkBAAIB"))
	server.LastCapture().AssertJSONField(t, "sticker", "CAACAgIAAxkBAAIB")

	assert.Error(t, client.DeleteStickerFromSet(context.Background(), ""))
}

package testutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/internal/testutil"
)

func TestMockServer_CapturesRequests(t *testing.T) {
	server := testutil.NewMockServer(t)

	// Make a request
	resp, err := http.Post(server.BaseURL()+"/test", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	// Verify capture
	assert.Equal(t, 1, server.CaptureCount())

	cap := server.LastCapture()
	require.NotNil(t, cap)
	assert.Equal(t, "POST", cap.Method)
	assert.Equal(t, "/test", cap.Path)
}

func TestMockServer_CustomHandler(t *testing.T) {
	server := testutil.NewMockServer(t)

	server.OnMethod("POST", "/bot"+testutil.TestToken+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyMessage(w, 42)
	})

	resp, err := http.Post(server.BaseURL()+"/bot"+testutil.TestToken+"/sendMessage", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope testutil.TelegramEnvelope
	err = json.NewDecoder(resp.Body).Decode(&envelope)
	require.NoError(t, err)

	assert.True(t, envelope.OK)
	result, ok := envelope.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), result["message_id"])
}

func TestMockServer_DefaultSuccess(t *testing.T) {
	server := testutil.NewMockServer(t)

	// No handler registered - should return default success
	resp, err := http.Get(server.BaseURL() + "/unknown")
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope testutil.TelegramEnvelope
	err = json.NewDecoder(resp.Body).Decode(&envelope)
	require.NoError(t, err)

	assert.True(t, envelope.OK)
}

func TestMockServer_Reset(t *testing.T) {
	server := testutil.NewMockServer(t)

	// Make some requests
	resp1, _ := http.Get(server.BaseURL() + "/test1")
	if resp1 != nil {
		resp1.Body.Close()
	}
	resp2, _ := http.Get(server.BaseURL() + "/test2")
	if resp2 != nil {
		resp2.Body.Close()
	}

	assert.Equal(t, 2, server.CaptureCount())

	server.Reset()

	assert.Equal(t, 0, server.CaptureCount())
}

func TestMockServer_TimeBetweenCaptures(t *testing.T) {
	server := testutil.NewMockServer(t)

	resp1, _ := http.Get(server.BaseURL() + "/test1")
	if resp1 != nil {
		resp1.Body.Close()
	}
	time.Sleep(50 * time.Millisecond)
	resp2, _ := http.Get(server.BaseURL() + "/test2")
	if resp2 != nil {
		resp2.Body.Close()
	}

	duration := server.TimeBetweenCaptures(0, 1)
	assert.GreaterOrEqual(t, duration, 50*time.Millisecond)
}

func TestReplyRateLimit(t *testing.T) {
	server := testutil.NewMockServer(t)

	server.On("/test", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyRateLimit(w, 5)
	})

	resp, err := http.Post(server.BaseURL()+"/test", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "5", resp.Header.Get("Retry-After"))

	var envelope testutil.TelegramEnvelope
	err = json.NewDecoder(resp.Body).Decode(&envelope)
	require.NoError(t, err)

	assert.False(t, envelope.OK)
	assert.Equal(t, 429, envelope.ErrorCode)
	assert.Equal(t, 5, envelope.Parameters.RetryAfter)
}

func TestReplyServerError(t *testing.T) {
	server := testutil.NewMockServer(t)

	server.On("/test", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyServerError(w, 502, "Bad Gateway")
	})

	resp, err := http.Post(server.BaseURL()+"/test", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope testutil.TelegramEnvelope
	err = json.NewDecoder(resp.Body).Decode(&envelope)
	require.NoError(t, err)

	assert.False(t, envelope.OK)
	assert.Equal(t, 502, envelope.ErrorCode)
	assert.Equal(t, "Bad Gateway", envelope.Description)
}

func TestFakeSleeper_RecordsCalls(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}
	ctx := context.Background()

	err := sleeper.Sleep(ctx, 100*time.Millisecond)
	require.NoError(t, err)

	err = sleeper.Sleep(ctx, 200*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, 2, sleeper.CallCount())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.Calls())
	assert.Equal(t, 200*time.Millisecond, sleeper.LastCall())
	assert.Equal(t, 300*time.Millisecond, sleeper.TotalDuration())
}

func TestFakeSleeper_RespectsContextCancel(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := sleeper.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sleeper.CallCount()) // Should not record cancelled sleep
}

func TestFakeSleeper_Reset(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}
	ctx := context.Background()

	sleeper.Sleep(ctx, time.Second)
	sleeper.Sleep(ctx, time.Second)

	assert.Equal(t, 2, sleeper.CallCount())

	sleeper.Reset()

	assert.Equal(t, 0, sleeper.CallCount())
}

func TestCapture_Assertions(t *testing.T) {
	server := testutil.NewMockServer(t)

	server.On("/bot"+testutil.TestToken+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyMessage(w, 123)
	})

	resp, err := http.Post(
		server.BaseURL()+"/bot"+testutil.TestToken+"/sendMessage",
		"application/json",
		nil,
	)
	require.NoError(t, err)
	resp.Body.Close()

	// Test with body
	server.ResetCaptures()

	req, _ := http.NewRequest("POST", server.BaseURL()+"/bot"+testutil.TestToken+"/sendMessage", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, _ = http.DefaultClient.Do(req)
	if resp != nil {
		resp.Body.Close()
	}

	cap := server.LastCapture()
	require.NotNil(t, cap)

	cap.AssertMethod(t, "POST")
	cap.AssertPath(t, "/bot"+testutil.TestToken+"/sendMessage")
	cap.AssertContentType(t, "application/json")

	// Test body assertions with actual body
	server.ResetCaptures()

	resp, _ = http.Post(
		server.BaseURL()+"/test",
		"application/json",
		jsonReader(map[string]any{"chat_id": float64(123), "text": "Hello"}),
	)
	resp.Body.Close()

	cap = server.LastCapture()
	cap.AssertJSONField(t, "chat_id", float64(123))
	cap.AssertJSONField(t, "text", "Hello")
	cap.AssertJSONFieldExists(t, "chat_id")
	cap.AssertJSONFieldAbsent(t, "parse_mode")
}

func TestMockServer_OnFileAndCapturesFor(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnFile("photos/file_1.jpg", []byte("raw-bytes"))
	server.OnAPI("getFile", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyFile(w, "file_1", "photos/file_1.jpg", 9)
	})

	resp, err := http.Post(server.BaseURL()+"/bot"+testutil.TestToken+"/getFile", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(server.BaseURL() + "/file/bot" + testutil.TestToken + "/photos/file_1.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "raw-bytes", string(body))
	assert.Len(t, server.CapturesFor("getFile"), 1)
	assert.Empty(t, server.CapturesFor("sendMessage"))
}

func TestCapture_Multipart(t *testing.T) {
	server := testutil.NewMockServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "stickers_1_2_by_testbot"))
	part, err := mw.CreateFormFile("sticker_file_0", "sticker.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(server.BaseURL()+"/bot"+testutil.TestToken+"/addStickerToSet", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()

	cap := server.LastCapture()
	require.NotNil(t, cap)
	assert.Equal(t, "stickers_1_2_by_testbot", cap.MultipartField(t, "name"))
	data, name := cap.MultipartFile(t, "sticker_file_0")
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "sticker.png", name)
}

func TestReplyStickerSetInvalid(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnAPI("addStickerToSet", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyStickerSetInvalid(w)
	})

	resp, err := http.Post(server.BaseURL()+"/bot"+testutil.TestToken+"/addStickerToSet", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope testutil.TelegramEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.False(t, envelope.OK)
	assert.Equal(t, 400, envelope.ErrorCode)
	assert.Contains(t, envelope.Description, "STICKERSET_INVALID")
}

func TestFixtures(t *testing.T) {
	user := testutil.TestUser()
	assert.Equal(t, testutil.TestUserID, user.ID)
	assert.False(t, user.IsBot)

	bot := testutil.TestBot()
	assert.Equal(t, testutil.TestBotID, bot.ID)
	assert.True(t, bot.IsBot)

	msg := testutil.TestMessage(42, "Hello World")
	assert.Equal(t, 42, msg.MessageID)
	assert.Equal(t, "Hello World", msg.Text)

	photo := testutil.TestMediaGroupPhoto(3, "g1", "file_3")
	assert.Equal(t, "g1", photo.MediaGroupID)
	assert.Equal(t, "file_3", photo.LargestPhoto().FileID)

	doc := testutil.TestDocumentMessage(4, "file_4", "image/webp")
	assert.Equal(t, "image/webp", doc.Document.MimeType)

	st := testutil.TestStickerMessage(5, "sticker_5", "stickers_1_2_by_testbot")
	assert.Equal(t, "stickers_1_2_by_testbot", st.Sticker.SetName)

	cb := testutil.TestCallbackQuery("cb_123", "button_data")
	assert.Equal(t, "cb_123", cb.ID)
	assert.Equal(t, "button_data", cb.Data)
}

// Helper to create JSON reader
func jsonReader(v any) *bytes.Buffer {
	data, _ := json.Marshal(v)
	return bytes.NewBuffer(data)
}

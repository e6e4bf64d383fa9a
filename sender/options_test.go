package sender_test

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/internal/testutil"
	"github.com/prilive-com/packbot/sender"
	"github.com/prilive-com/packbot/tg"
)

func TestOption_WithLogger(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnAPI("sendMessage", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyMessage(w, 1)
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := testutil.NewTestClient(t, server.BaseURL(), sender.WithLogger(logger))

	_, err := client.Send(context.Background(), testutil.TestChatID, "Hello")
	require.NoError(t, err)
}

func TestOption_WithHTTPClient(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnAPI("getMe", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyUser(w)
	})

	client := testutil.NewTestClient(t, server.BaseURL(), sender.WithHTTPClient(&http.Client{}))
	me, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutil.TestBotUsername, me.Username)
}

func TestSendOptions(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnAPI("sendMessage", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyMessage(w, 7)
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	kb := tg.NewKeyboard().Row(tg.Btn("Stats", "stats")).Build()
	_, err := client.Send(context.Background(), testutil.TestChatID, "Hi",
		sender.WithKeyboard(kb),
		sender.WithParseMode("HTML"),
		sender.WithReplyTo(3),
		sender.WithoutPreview(),
	)
	require.NoError(t, err)

	cap := server.LastCapture()
	cap.AssertJSONField(t, "parse_mode", "HTML")
	cap.AssertJSONField(t, "reply_to_message_id", float64(3))
	cap.AssertJSONField(t, "disable_web_page_preview", true)
	cap.AssertJSONFieldExists(t, "reply_markup")
}

func TestAnswerOptions(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnAPI("answerCallbackQuery", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyBool(w, true)
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	cb := testutil.TestCallbackQuery("cb_1", "stats")
	require.NoError(t, client.Answer(context.Background(), cb, sender.AnswerText("You have 2 packs"), sender.Alert()))

	cap := server.LastCapture()
	cap.AssertJSONField(t, "callback_query_id", "cb_1")
	cap.AssertJSONField(t, "text", "You have 2 packs")
	cap.AssertJSONField(t, "show_alert", true)
}

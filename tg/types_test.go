package tg_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/tg"
)

func TestMessage_IsCommand(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"/start", true},
		{"/start payload", true},
		{"/start@packbot", true},
		{"/started", false},
		{"start", false},
		{"", false},
		{"/", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			msg := &tg.Message{Text: tt.text}
			assert.Equal(t, tt.want, msg.IsCommand("start"))
		})
	}
}

func TestMessage_LargestPhoto(t *testing.T) {
	msg := &tg.Message{Photo: []tg.PhotoSize{
		{FileID: "small", Width: 90},
		{FileID: "big", Width: 1280},
	}}
	require.NotNil(t, msg.LargestPhoto())
	assert.Equal(t, "big", msg.LargestPhoto().FileID)

	assert.Nil(t, (&tg.Message{}).LargestPhoto())

	var nilMsg *tg.Message
	assert.Nil(t, nilMsg.LargestPhoto())
}

func TestMessage_Sig(t *testing.T) {
	msg := &tg.Message{MessageID: 5, Chat: &tg.Chat{ID: 77}}
	chatID, msgID := msg.Sig()
	assert.Equal(t, int64(77), chatID)
	assert.Equal(t, 5, msgID)

	var nilMsg *tg.Message
	chatID, msgID = nilMsg.Sig()
	assert.Zero(t, chatID)
	assert.Zero(t, msgID)
}

func TestUpdate_DecodeMediaGroupMessage(t *testing.T) {
	raw := `{
		"update_id": 10,
		"message": {
			"message_id": 3,
			"date": 1700000000,
			"chat": {"id": 42, "type": "private"},
			"from": {"id": 42, "is_bot": false, "first_name": "A"},
			"media_group_id": "grp-1",
			"photo": [{"file_id": "s", "file_unique_id": "u1", "width": 90, "height": 90},
			          {"file_id": "l", "file_unique_id": "u2", "width": 800, "height": 600}]
		}
	}`
	var u tg.Update
	require.NoError(t, json.Unmarshal([]byte(raw), &u))

	require.NotNil(t, u.Message)
	assert.Equal(t, "grp-1", u.Message.MediaGroupID)
	assert.Equal(t, "l", u.Message.LargestPhoto().FileID)
	assert.Equal(t, int64(42), u.Sender().ID)
}

func TestCallbackQuery_ChatIDValue(t *testing.T) {
	cb := &tg.CallbackQuery{From: &tg.User{ID: 9}}
	assert.Equal(t, int64(9), cb.ChatIDValue())

	cb.Message = &tg.Message{Chat: &tg.Chat{ID: 100}}
	assert.Equal(t, int64(100), cb.ChatIDValue())

	var nilCb *tg.CallbackQuery
	assert.Zero(t, nilCb.ChatIDValue())
}

func TestAddStickersURL(t *testing.T) {
	assert.Equal(t, "https://t.me/addstickers/stickers_1_2_by_bot", tg.AddStickersURL("stickers_1_2_by_bot"))
}

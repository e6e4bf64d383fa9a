package sender

import "github.com/prilive-com/packbot/tg"

// SendMessageRequest represents a sendMessage request.
type SendMessageRequest struct {
	ChatID                tg.ChatID                `json:"chat_id"`
	Text                  string                   `json:"text"`
	ParseMode             string                   `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool                     `json:"disable_web_page_preview,omitempty"`
	DisableNotification   bool                     `json:"disable_notification,omitempty"`
	ReplyToMessageID      int                      `json:"reply_to_message_id,omitempty"`
	ReplyMarkup           *tg.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageTextRequest represents an editMessageText request.
type EditMessageTextRequest struct {
	ChatID                tg.ChatID                `json:"chat_id"`
	MessageID             int                      `json:"message_id"`
	Text                  string                   `json:"text"`
	ParseMode             string                   `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool                     `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup           *tg.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageReplyMarkupRequest represents an editMessageReplyMarkup request.
type EditMessageReplyMarkupRequest struct {
	ChatID      tg.ChatID                `json:"chat_id"`
	MessageID   int                      `json:"message_id"`
	ReplyMarkup *tg.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// DeleteMessageRequest represents a deleteMessage request.
type DeleteMessageRequest struct {
	ChatID    tg.ChatID `json:"chat_id"`
	MessageID int       `json:"message_id"`
}

// AnswerCallbackQueryRequest represents an answerCallbackQuery request.
type AnswerCallbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
	URL             string `json:"url,omitempty"`
	CacheTime       int    `json:"cache_time,omitempty"`
}

// GetChatMemberRequest represents a getChatMember request.
type GetChatMemberRequest struct {
	ChatID tg.ChatID `json:"chat_id"`
	UserID int64     `json:"user_id"`
}

// GetFileRequest represents a getFile request.
type GetFileRequest struct {
	FileID string `json:"file_id"`
}

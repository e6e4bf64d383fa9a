package sender

import "github.com/prilive-com/packbot/tg"

// SendOption configures sendMessage requests.
type SendOption func(*SendMessageRequest)

// WithKeyboard attaches an inline keyboard.
func WithKeyboard(kb *tg.InlineKeyboardMarkup) SendOption {
	return func(r *SendMessageRequest) {
		r.ReplyMarkup = kb
	}
}

// WithParseMode sets the parse mode ("HTML", "MarkdownV2").
func WithParseMode(mode string) SendOption {
	return func(r *SendMessageRequest) {
		r.ParseMode = mode
	}
}

// WithReplyTo replies to the given message.
func WithReplyTo(messageID int) SendOption {
	return func(r *SendMessageRequest) {
		r.ReplyToMessageID = messageID
	}
}

// WithoutPreview disables link previews.
func WithoutPreview() SendOption {
	return func(r *SendMessageRequest) {
		r.DisableWebPagePreview = true
	}
}

// AnswerOption configures callback answer requests.
type AnswerOption func(*AnswerCallbackQueryRequest)

// AnswerText sets the text for callback answer.
func AnswerText(text string) AnswerOption {
	return func(r *AnswerCallbackQueryRequest) {
		r.Text = text
	}
}

// Alert shows the answer as an alert.
func Alert() AnswerOption {
	return func(r *AnswerCallbackQueryRequest) {
		r.ShowAlert = true
	}
}

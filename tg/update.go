package tg

// Update represents an incoming update from Telegram.
// The bot subscribes to messages and callback queries only.
type Update struct {
	UpdateID      int            `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Sender returns the user that triggered the update, or nil.
func (u Update) Sender() *User {
	switch {
	case u.Message != nil:
		return u.Message.From
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From
	}
	return nil
}

// CallbackQuery represents an incoming callback query from an inline keyboard.
type CallbackQuery struct {
	ID           string   `json:"id"`
	From         *User    `json:"from"`
	Message      *Message `json:"message,omitempty"`
	ChatInstance string   `json:"chat_instance"`
	Data         string   `json:"data,omitempty"`
}

// ChatIDValue returns the chat of the message carrying the keyboard, or the
// sender id for callbacks on messages too old to be delivered.
func (c *CallbackQuery) ChatIDValue() int64 {
	if c == nil {
		return 0
	}
	if c.Message != nil && c.Message.Chat != nil {
		return c.Message.Chat.ID
	}
	if c.From != nil {
		return c.From.ID
	}
	return 0
}

package sender

import (
	"fmt"

	"github.com/prilive-com/packbot/tg"
)

// validateChatID validates a ChatID value.
// Returns nil if valid, error if invalid.
func validateChatID(id tg.ChatID) error {
	if id == nil {
		return fmt.Errorf("packbot: chat_id is required")
	}
	switch v := id.(type) {
	case int64:
		if v == 0 {
			return fmt.Errorf("packbot: chat_id cannot be zero")
		}
		return nil
	case int:
		if v == 0 {
			return fmt.Errorf("packbot: chat_id cannot be zero")
		}
		return nil
	case string:
		if v == "" {
			return fmt.Errorf("packbot: chat_id cannot be empty string")
		}
		return nil
	default:
		return fmt.Errorf("packbot: chat_id must be int64, int, or string, got %T", id)
	}
}

// validateUserID validates a user ID.
func validateUserID(id int64) error {
	if id <= 0 {
		return tg.NewValidationError("user_id", fmt.Sprintf("must be positive, got %d", id))
	}
	return nil
}

// validateMessageID validates a message ID.
func validateMessageID(id int) error {
	if id <= 0 {
		return tg.NewValidationError("message_id", fmt.Sprintf("must be positive, got %d", id))
	}
	return nil
}

// validateEmojiList checks the 1..20 emoji bound Telegram applies per sticker.
func validateEmojiList(list []string) error {
	if len(list) == 0 {
		return tg.NewValidationError("emoji_list", "at least one emoji required")
	}
	if len(list) > 20 {
		return tg.NewValidationError("emoji_list", "at most 20 emoji allowed")
	}
	for i, e := range list {
		if e == "" {
			return tg.NewValidationError("emoji_list", fmt.Sprintf("item %d is empty", i))
		}
	}
	return nil
}

// Package validate holds Telegram-specific format checks. They are used
// directly and as go-playground/validator rules on config structs.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error represents a validation error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation: %s - %s", e.Field, e.Message)
}

// New creates a new validation error.
func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Newf creates a new validation error with formatted message.
func Newf(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Token validates a Telegram bot token format.
// Format: {bot_id}:{secret} where bot_id is numeric.
func Token(token string) error {
	if token == "" {
		return New("token", "cannot be empty")
	}

	botID, secret, ok := strings.Cut(token, ":")
	if !ok {
		return New("token", "invalid format, expected {bot_id}:{secret}")
	}
	if botID == "" {
		return New("token", "bot_id cannot be empty")
	}
	for _, c := range botID {
		if c < '0' || c > '9' {
			return New("token", "bot_id must be numeric")
		}
	}
	if secret == "" {
		return New("token", "secret cannot be empty")
	}
	return nil
}

var usernameRegex = regexp.MustCompile(`^@?[a-zA-Z][a-zA-Z0-9_]{4,31}$`)

// Username validates a Telegram username. Bot usernames end up in every
// sticker set name, so a malformed one would make every create fail.
func Username(username string) error {
	if username == "" {
		return New("username", "cannot be empty")
	}
	if !usernameRegex.MatchString(username) {
		return New("username", "invalid format (5-32 alphanumeric characters, starting with letter)")
	}
	return nil
}

// ChannelURL validates a public join link.
func ChannelURL(url string) error {
	if url == "" {
		return New("channel_url", "cannot be empty")
	}
	if !strings.HasPrefix(url, "https://t.me/") && !strings.HasPrefix(url, "https://telegram.me/") {
		return New("channel_url", "must be a https://t.me/ link")
	}
	return nil
}

// CallbackData validates inline keyboard callback data.
func CallbackData(data string, maxLen int) error {
	if data == "" {
		return New("callback_data", "cannot be empty")
	}
	if len(data) > maxLen {
		return Newf("callback_data", "exceeds maximum length of %d bytes", maxLen)
	}
	return nil
}

// Register adds the "bottoken" and "channelurl" rules to v.
func Register(v *validator.Validate) error {
	rules := map[string]func(string) error{
		"bottoken":   Token,
		"channelurl": ChannelURL,
	}
	for tag, check := range rules {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String()) == nil
		})
		if err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

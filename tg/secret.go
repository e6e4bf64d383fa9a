package tg

import (
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

// SecretToken wraps a bot token to prevent accidental logging.
// Implements fmt.Stringer, fmt.GoStringer, slog.LogValuer, and encoding.TextMarshaler.
type SecretToken string

// Value returns the actual token value.
// Only use this when building Bot API URLs.
func (s SecretToken) Value() string { return string(s) }

func (s SecretToken) String() string   { return redacted }
func (s SecretToken) GoString() string { return `tg.SecretToken("[REDACTED]")` }

// LogValue keeps the token out of slog output, including %+v of parent structs.
func (s SecretToken) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// MarshalText returns redacted bytes so config dumps never carry the token.
func (s SecretToken) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// IsEmpty returns true if the token is empty.
func (s SecretToken) IsEmpty() bool {
	return s == ""
}

// BotID returns the numeric prefix of the token ("123456" of "123456:ABC").
func (s SecretToken) BotID() string {
	id, _, ok := strings.Cut(string(s), ":")
	if !ok {
		return ""
	}
	return id
}

// Redact replaces every occurrence of the token in text.
func (s SecretToken) Redact(text string) string {
	if s.IsEmpty() {
		return text
	}
	return strings.ReplaceAll(text, string(s), redacted)
}

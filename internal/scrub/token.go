// Package scrub provides security helpers for removing sensitive data from errors.
package scrub

import (
	"strings"

	"github.com/prilive-com/packbot/tg"
)

// TokenFromError removes the bot token from error messages.
// Go's http.Client.Do() includes the request URL (containing the token) in error strings,
// and so do file downloads from /file/bot<token>/.
// Preserves the error chain for errors.Is/As via Unwrap().
func TokenFromError(err error, token tg.SecretToken) error {
	if err == nil || token.IsEmpty() {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, token.Value()) {
		return err
	}
	return &scrubbedError{msg: token.Redact(msg), err: err}
}

// URL returns rawURL with the token path segment redacted, for log fields.
func URL(rawURL string, token tg.SecretToken) string {
	return token.Redact(rawURL)
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.err }

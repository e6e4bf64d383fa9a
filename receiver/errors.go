package receiver

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrAlreadyRunning = errors.New("packbot/receiver: already running")
	ErrTokenRequired  = errors.New("packbot/receiver: bot token required")
)

// APIError represents a failed getUpdates or deleteWebhook call.
type APIError struct {
	Code        int
	Description string
	Err         error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("telegram API error %d: %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("telegram API error %d: %s", e.Code, e.Description)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

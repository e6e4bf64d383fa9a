package tg

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors - use with errors.Is()
var (
	// API errors
	ErrUnauthorized    = errors.New("packbot: unauthorized (invalid token)")
	ErrForbidden       = errors.New("packbot: forbidden")
	ErrNotFound        = errors.New("packbot: not found")
	ErrTooManyRequests = errors.New("packbot: too many requests")

	// Message errors
	ErrMessageNotFound      = errors.New("packbot: message not found")
	ErrMessageNotModified   = errors.New("packbot: message not modified")
	ErrMessageCantBeDeleted = errors.New("packbot: message can't be deleted")

	// Chat/User errors
	ErrBotBlocked   = errors.New("packbot: bot blocked by user")
	ErrChatNotFound = errors.New("packbot: chat not found")
	ErrUserNotFound = errors.New("packbot: user not found")

	// Sticker set errors
	ErrStickerSetInvalid = errors.New("packbot: sticker set invalid or not found")
	ErrStickerInvalid    = errors.New("packbot: sticker file rejected")
	ErrStickerSetFull    = errors.New("packbot: sticker set is full")
	ErrStickerSetTaken   = errors.New("packbot: sticker set name is already occupied")

	// Callback errors
	ErrCallbackExpired = errors.New("packbot: callback query expired")

	// Client errors
	ErrCircuitOpen      = errors.New("packbot: circuit breaker open")
	ErrResponseTooLarge = errors.New("packbot: response too large")

	// Validation errors
	ErrInvalidToken  = errors.New("packbot: invalid bot token format")
	ErrPathTraversal = errors.New("packbot: path traversal attempt")
)

// ResponseParameters contains information about why a request was unsuccessful.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// APIError represents an error response from Telegram API.
// Use errors.As() to extract details, errors.Is() to match sentinels.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
	Method      string // API method that failed
	cause       error  // Underlying sentinel for errors.Is()
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("packbot: %s failed: %s (code=%d, retry_after=%s)",
			e.Method, e.Description, e.Code, e.RetryAfter)
	}
	return fmt.Sprintf("packbot: %s failed: %s (code=%d)", e.Method, e.Description, e.Code)
}

// Unwrap returns the underlying sentinel error for errors.Is() support.
func (e *APIError) Unwrap() error { return e.cause }

// IsRateLimited reports whether Telegram asked the caller to back off.
func (e *APIError) IsRateLimited() bool {
	return e.Code == 429 || e.RetryAfter > 0
}

// NewAPIError creates an APIError with automatic sentinel detection.
func NewAPIError(method string, code int, description string) *APIError {
	return &APIError{
		Code:        code,
		Description: description,
		Method:      method,
		cause:       DetectSentinel(code, description),
	}
}

// NewAPIErrorWithRetry creates an APIError with retry information.
func NewAPIErrorWithRetry(method string, code int, description string, retryAfter time.Duration) *APIError {
	e := NewAPIError(method, code, description)
	e.RetryAfter = retryAfter
	return e
}

// RetryAfterOf returns the server-requested delay carried by err, if any.
func RetryAfterOf(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsRateLimited() {
		return apiErr.RetryAfter, true
	}
	return 0, false
}

// DetectSentinel maps Telegram error codes/descriptions to sentinel errors.
// Description-based detection is prioritized over HTTP status codes for more specific errors.
func DetectSentinel(code int, desc string) error {
	descLower := strings.ToLower(desc)
	switch {
	case strings.Contains(descLower, "stickerset_invalid"),
		strings.Contains(descLower, "sticker set not found"),
		strings.Contains(descLower, "set not found"):
		return ErrStickerSetInvalid
	case strings.Contains(descLower, "stickers_too_much"):
		return ErrStickerSetFull
	case strings.Contains(descLower, "sticker set name is already occupied"),
		strings.Contains(descLower, "stickerset_name_occupied"):
		return ErrStickerSetTaken
	case strings.Contains(descLower, "sticker_png_dimensions"),
		strings.Contains(descLower, "sticker_video_long"),
		strings.Contains(descLower, "sticker_file_invalid"),
		strings.Contains(descLower, "file_parts_invalid"):
		return ErrStickerInvalid
	case strings.Contains(descLower, "message is not modified"):
		return ErrMessageNotModified
	case strings.Contains(descLower, "message to edit not found"),
		strings.Contains(descLower, "message to delete not found"),
		strings.Contains(descLower, "message not found"):
		return ErrMessageNotFound
	case strings.Contains(descLower, "message can't be deleted"):
		return ErrMessageCantBeDeleted
	case strings.Contains(descLower, "bot was blocked"):
		return ErrBotBlocked
	case strings.Contains(descLower, "chat not found"):
		return ErrChatNotFound
	case strings.Contains(descLower, "user not found"),
		strings.Contains(descLower, "participant_id_invalid"):
		return ErrUserNotFound
	case strings.Contains(descLower, "query is too old"):
		return ErrCallbackExpired
	}

	switch code {
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 429:
		return ErrTooManyRequests
	}

	return nil
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("packbot: validation: %s - %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

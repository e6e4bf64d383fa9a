package receiver

import (
	"time"

	"github.com/prilive-com/packbot/internal/resilience"
	"github.com/prilive-com/packbot/tg"
)

// DefaultAllowedUpdates are the update kinds the bot handles.
var DefaultAllowedUpdates = []string{"message", "callback_query"}

// Config holds long polling configuration.
type Config struct {
	// API URL including the "/bot" suffix (defaults to https://api.telegram.org/bot)
	BaseURL string

	PollingTimeout     int      // Seconds to wait (0-60)
	PollingLimit       int      // Max updates per request (1-100)
	PollingMaxErrors   int      // Max consecutive errors (0 = unlimited)
	DeleteWebhookFirst bool     // Delete webhook before starting
	AllowedUpdates     []string // Filter update types

	// Backoff between failed getUpdates calls
	Retry resilience.Backoff

	// Circuit breaker
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollingTimeout:     30,
		PollingLimit:       100,
		PollingMaxErrors:   0,
		DeleteWebhookFirst: true,
		AllowedUpdates:     DefaultAllowedUpdates,
		Retry:              resilience.DefaultBackoff(),
		BreakerMaxRequests: 5,
		BreakerInterval:    2 * time.Minute,
		BreakerTimeout:     60 * time.Second,
	}
}

// Validate checks the polling bounds Telegram enforces.
func (c Config) Validate() error {
	if c.PollingTimeout < 0 || c.PollingTimeout > 60 {
		return tg.NewValidationError("polling_timeout", "must be 0-60")
	}
	if c.PollingLimit < 1 || c.PollingLimit > 100 {
		return tg.NewValidationError("polling_limit", "must be 1-100")
	}
	return nil
}

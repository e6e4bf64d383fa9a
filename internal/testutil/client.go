package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/sender"
)

// NewTestClient creates a standard test client pointed at baseURL.
// Pacing is loose enough that tests never wait on the limiter.
func NewTestClient(t *testing.T, baseURL string, opts ...sender.Option) *sender.Client {
	t.Helper()

	defaultOpts := []sender.Option{
		sender.WithBaseURL(baseURL),
		sender.WithRateLimit(1000, 1000),
		sender.WithPerChatRateLimit(1000, 1000),
	}

	client, err := sender.New(TestToken, append(defaultOpts, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() { client.Close() })
	return client
}

// NewBreakerTestClient creates a client whose breaker trips after two
// consecutive server failures and probes again after one second.
func NewBreakerTestClient(t *testing.T, baseURL string, opts ...sender.Option) *sender.Client {
	t.Helper()
	return NewTestClient(t, baseURL, append([]sender.Option{sender.WithBreakerThreshold(2), sender.WithBreakerTimeout(time.Second)}, opts...)...)
}

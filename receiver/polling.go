package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sony/gobreaker/v2"

	"github.com/prilive-com/packbot/internal/httpclient"
	"github.com/prilive-com/packbot/internal/resilience"
	"github.com/prilive-com/packbot/internal/scrub"
	"github.com/prilive-com/packbot/tg"
)

const (
	telegramAPIBaseURL  = "https://api.telegram.org/bot"
	maxPollResponseSize = 50 << 20 // 50MB for updates
)

// PollingClient polls Telegram's getUpdates API for updates.
type PollingClient struct {
	token   tg.SecretToken
	baseURL string
	updates chan<- tg.Update
	logger  *slog.Logger

	timeout              int
	limit                int
	maxErrors            int
	allowedUpdates       []string
	deleteWebhookOnStart bool
	backoff              resilience.Backoff
	sleeper              resilience.Sleeper

	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]

	running           atomic.Bool
	offset            atomic.Int64
	consecutiveErrors atomic.Int32
	mu                sync.Mutex // guards cancel
	cancel            context.CancelFunc
	wg                sync.WaitGroup
}

// PollingOption configures the PollingClient.
type PollingOption func(*PollingClient)

// WithPollingLogger sets the logger.
func WithPollingLogger(logger *slog.Logger) PollingOption {
	return func(c *PollingClient) {
		c.logger = logger
	}
}

// WithPollingHTTPClient sets a custom HTTP client.
func WithPollingHTTPClient(client *http.Client) PollingOption {
	return func(c *PollingClient) {
		c.client = client
	}
}

// WithPollingSleeper replaces the sleeper used between failed polls.
func WithPollingSleeper(s resilience.Sleeper) PollingOption {
	return func(c *PollingClient) {
		c.sleeper = s
	}
}

// NewPollingClient creates a new long polling client.
func NewPollingClient(token tg.SecretToken, updates chan<- tg.Update, cfg Config, opts ...PollingOption) (*PollingClient, error) {
	if token.IsEmpty() {
		return nil, ErrTokenRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = telegramAPIBaseURL
	}

	c := &PollingClient{
		token:                token,
		baseURL:              baseURL,
		updates:              updates,
		timeout:              cfg.PollingTimeout,
		limit:                cfg.PollingLimit,
		maxErrors:            cfg.PollingMaxErrors,
		allowedUpdates:       cfg.AllowedUpdates,
		deleteWebhookOnStart: cfg.DeleteWebhookFirst,
		backoff:              cfg.Retry,
		sleeper:              resilience.RealSleeper{},
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.client == nil {
		c.client = defaultPollingHTTPClient(cfg.PollingTimeout)
	}

	breakerCfg := resilience.DefaultBreakerConfig("packbot-polling")
	breakerCfg.MaxRequests = cfg.BreakerMaxRequests
	breakerCfg.Interval = cfg.BreakerInterval
	breakerCfg.Timeout = cfg.BreakerTimeout
	breakerCfg.Threshold = 0
	breakerCfg.MinRequests = 3
	breakerCfg.FailureRatio = 0.6
	breakerCfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	breakerCfg.OnStateChange = func(name, from, to string) {
		c.logger.Info("circuit breaker state changed", "name", name, "from", from, "to", to)
	}
	c.breaker = resilience.NewBreaker[[]byte](breakerCfg)

	return c, nil
}

func defaultPollingHTTPClient(timeoutSeconds int) *http.Client {
	return httpclient.ForLongPolling(timeoutSeconds)
}

// Start begins polling for updates. The loop ends when ctx is done, Stop is
// called, or PollingMaxErrors consecutive polls fail.
func (c *PollingClient) Start(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if c.deleteWebhookOnStart {
		c.logger.Info("deleting existing webhook")
		if err := c.deleteWebhook(ctx); err != nil {
			c.running.Store(false)
			return fmt.Errorf("failed to delete webhook: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Go(func() {
		c.pollLoop(runCtx)
	})

	c.logger.Info("long polling started",
		"timeout", c.timeout,
		"limit", c.limit,
		"max_errors", c.maxErrors,
	)
	return nil
}

// Stop stops polling and waits for the loop to exit. It is safe to call
// more than once, and Start may be called again afterwards.
func (c *PollingClient) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	c.wg.Wait()
	c.logger.Info("long polling stopped")
}

// Running returns true if polling is active.
func (c *PollingClient) Running() bool {
	return c.running.Load()
}

// IsHealthy reports whether polling runs and has not hit the error ceiling.
func (c *PollingClient) IsHealthy() bool {
	if c.maxErrors == 0 {
		return c.running.Load()
	}
	return c.running.Load() && int(c.consecutiveErrors.Load()) < c.maxErrors
}

// ConsecutiveErrors returns the current error count.
func (c *PollingClient) ConsecutiveErrors() int32 {
	return c.consecutiveErrors.Load()
}

// Offset returns the current update offset.
func (c *PollingClient) Offset() int64 {
	return c.offset.Load()
}

func (c *PollingClient) pollLoop(ctx context.Context) {
	defer c.running.Store(false)

	for {
		if ctx.Err() != nil {
			c.logger.Info("polling stopped", "reason", ctx.Err())
			return
		}

		updates, err := c.fetchUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			errCount := c.consecutiveErrors.Add(1)
			delay := c.backoff.Delay(int(errCount))
			c.logger.Error("fetch updates failed",
				"error", err,
				"consecutive_errors", errCount,
				"retry_delay", delay,
			)

			if c.maxErrors > 0 && int(errCount) >= c.maxErrors {
				c.logger.Error("max consecutive errors exceeded", "max_errors", c.maxErrors)
				return
			}
			if c.sleeper.Sleep(ctx, delay) != nil {
				return
			}
			continue
		}

		c.consecutiveErrors.Store(0)

		// The offset only moves past an update once it is on the channel.
		for _, update := range updates {
			select {
			case c.updates <- update:
				if int64(update.UpdateID) >= c.offset.Load() {
					c.offset.Store(int64(update.UpdateID) + 1)
				}
				c.logger.Debug("update sent", "update_id", update.UpdateID)
			case <-ctx.Done():
				c.logger.Info("stopping update delivery", "reason", ctx.Err())
				return
			}
		}
	}
}

type getUpdatesResponse struct {
	OK          bool        `json:"ok"`
	Result      []tg.Update `json:"result,omitempty"`
	ErrorCode   int         `json:"error_code,omitempty"`
	Description string      `json:"description,omitempty"`
}

// apiResponse is the envelope of methods whose result is ignored.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (c *PollingClient) fetchUpdates(ctx context.Context) ([]tg.Update, error) {
	params := url.Values{}
	params.Set("timeout", strconv.Itoa(c.timeout))
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("offset", strconv.FormatInt(c.offset.Load(), 10))

	if len(c.allowedUpdates) > 0 {
		if encoded, err := json.Marshal(c.allowedUpdates); err == nil {
			params.Set("allowed_updates", string(encoded))
		}
	}

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, "getUpdates", params)
	})
	if err != nil {
		return nil, &APIError{Description: "request failed", Err: err}
	}

	var response getUpdatesResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, &APIError{Description: "failed to parse response", Err: err}
	}
	if !response.OK {
		return nil, &APIError{Code: response.ErrorCode, Description: response.Description}
	}
	return response.Result, nil
}

func (c *PollingClient) deleteWebhook(ctx context.Context) error {
	params := url.Values{}
	params.Set("drop_pending_updates", "false")

	body, err := c.get(ctx, "deleteWebhook", params)
	if err != nil {
		return &APIError{Description: "request failed", Err: err}
	}
	var response apiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return &APIError{Description: "failed to parse response", Err: err}
	}
	if !response.OK {
		return &APIError{Code: response.ErrorCode, Description: response.Description}
	}
	return nil
}

func (c *PollingClient) get(ctx context.Context, method string, params url.Values) ([]byte, error) {
	apiURL := fmt.Sprintf("%s%s/%s?%s", c.baseURL, c.token.Value(), method, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, scrub.TokenFromError(err, c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, scrub.TokenFromError(err, c.token)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPollResponseSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > maxPollResponseSize {
		return nil, tg.ErrResponseTooLarge
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return body, nil
}

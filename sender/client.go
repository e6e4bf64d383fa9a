package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/prilive-com/packbot/internal/httpclient"
	"github.com/prilive-com/packbot/internal/resilience"
	"github.com/prilive-com/packbot/internal/scrub"
	"github.com/prilive-com/packbot/tg"
)

const (
	maxResponseSize = 10 << 20 // 10MB
)

// Client is the Bot API client used by the bot's handlers.
//
// Calls are paced per chat and globally, and guarded by a circuit breaker.
// The client never retries on its own: a 429 surfaces as a *tg.APIError
// carrying RetryAfter and the caller decides what to do with it.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *resilience.KeyedLimiter
	breaker    *gobreaker.CircuitBreaker[*apiResponse]

	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	closed        chan struct{}
}

type apiResponse struct {
	OK          bool                   `json:"ok"`
	Result      json.RawMessage        `json:"result,omitempty"`
	ErrorCode   int                    `json:"error_code,omitempty"`
	Description string                 `json:"description,omitempty"`
	Parameters  *tg.ResponseParameters `json:"parameters,omitempty"`
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL sets the API base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.config.BaseURL = url
	}
}

// WithRateLimit sets the global pacing.
func WithRateLimit(globalRPS float64, burst int) Option {
	return func(c *Client) {
		c.config.GlobalRPS = globalRPS
		c.config.GlobalBurst = burst
	}
}

// WithPerChatRateLimit sets per-chat pacing.
func WithPerChatRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.config.PerChatRPS = rps
		c.config.PerChatBurst = burst
	}
}

// WithBreakerThreshold sets how many consecutive transport or 5xx failures
// open the breaker. 0 disables consecutive-failure tripping.
func WithBreakerThreshold(n uint32) Option {
	return func(c *Client) {
		c.config.BreakerThreshold = n
	}
}

// WithBreakerTimeout sets how long the breaker stays open before probing.
func WithBreakerTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.config.BreakerTimeout = d
	}
}

func createHTTPClient(cfg Config) *http.Client {
	return httpclient.New(httpclient.Config{
		RequestTimeout:      cfg.RequestTimeout,
		KeepAlive:           cfg.KeepAlive,
		IdleTimeout:         cfg.IdleTimeout,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
	})
}

// New creates a new Client with the given token and options.
func New(token string, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Token = tg.SecretToken(token)
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig creates a Client from a Config.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Token.IsEmpty() || cfg.Token.BotID() == "" {
		return nil, tg.ErrInvalidToken
	}

	c := &Client{
		config: cfg,
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.httpClient == nil {
		c.httpClient = createHTTPClient(c.config)
	}

	c.limiter = resilience.NewKeyedLimiter(resilience.LimiterConfig{
		GlobalRPS:   c.config.GlobalRPS,
		GlobalBurst: c.config.GlobalBurst,
		KeyRPS:      c.config.PerChatRPS,
		KeyBurst:    c.config.PerChatBurst,
		MaxKeys:     c.config.MaxChatLimiters,
		IdleTTL:     10 * time.Minute,
	})

	breakerCfg := resilience.DefaultBreakerConfig("packbot-sender")
	breakerCfg.MaxRequests = c.config.BreakerMaxRequests
	breakerCfg.Interval = c.config.BreakerInterval
	breakerCfg.Timeout = c.config.BreakerTimeout
	breakerCfg.Threshold = c.config.BreakerThreshold
	breakerCfg.IsSuccessful = isBreakerSuccess
	breakerCfg.OnStateChange = func(name, from, to string) {
		c.logger.Info("circuit breaker state changed", "name", name, "from", from, "to", to)
	}
	c.breaker = resilience.NewBreaker[*apiResponse](breakerCfg)

	c.startLimiterCleanup()

	return c, nil
}

// Close releases resources used by the client. Subsequent calls are no-ops.
func (c *Client) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}

	c.cleanupTicker.Stop()
	close(c.cleanupDone)

	if t, ok := c.httpClient.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}

// Healthy reports whether the breaker currently lets calls through.
func (c *Client) Healthy() bool {
	return !resilience.IsOpen(c.breaker)
}

// ChatLimiterCount returns the number of active per-chat limiters.
func (c *Client) ChatLimiterCount() int {
	return c.limiter.Len()
}

func (c *Client) startLimiterCleanup() {
	c.cleanupTicker = time.NewTicker(5 * time.Minute)
	c.cleanupDone = make(chan struct{})

	go func() {
		for {
			select {
			case <-c.cleanupDone:
				return
			case now := <-c.cleanupTicker.C:
				c.limiter.Sweep(now)
			}
		}
	}()
}

func (c *Client) executeRequest(ctx context.Context, method string, payload any, chatID string) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx, chatID); err != nil {
		return nil, err
	}
	resp, err := c.breaker.Execute(func() (*apiResponse, error) {
		return c.doRequest(ctx, method, payload)
	})
	if resilience.IsRejection(err) {
		return nil, fmt.Errorf("%w: %s: %w", tg.ErrCircuitOpen, method, err)
	}
	return resp, err
}

func (c *Client) doRequest(ctx context.Context, method string, payload any) (*apiResponse, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.config.BaseURL, c.config.Token.Value(), method)

	multipartReq, err := BuildMultipartRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var req *http.Request

	if multipartReq.HasUploads() {
		pr, pw := io.Pipe()
		encoder := NewMultipartEncoder(pw)
		contentType := encoder.ContentType()

		go func() {
			if encErr := encoder.Encode(multipartReq); encErr != nil {
				pw.CloseWithError(fmt.Errorf("failed to encode multipart request: %w", encErr))
				return
			}
			if encErr := encoder.Close(); encErr != nil {
				pw.CloseWithError(fmt.Errorf("failed to close multipart encoder: %w", encErr))
				return
			}
			pw.Close()
		}()

		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
		if err != nil {
			pr.Close()
			return nil, fmt.Errorf("failed to create request: %w", scrub.TokenFromError(err, c.config.Token))
		}
		req.Header.Set("Content-Type", contentType)
	} else {
		jsonData, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", marshalErr)
		}

		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", scrub.TokenFromError(err, c.config.Token))
		}
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", scrub.TokenFromError(err, c.config.Token))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > maxResponseSize {
		return nil, tg.ErrResponseTooLarge
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if !apiResp.OK {
		if retryAfter := parseRetryAfter(&apiResp, resp); retryAfter > 0 {
			return nil, tg.NewAPIErrorWithRetry(method, apiResp.ErrorCode, apiResp.Description, retryAfter)
		}
		return nil, tg.NewAPIError(method, apiResp.ErrorCode, apiResp.Description)
	}

	return &apiResp, nil
}

func chatKey(chatID tg.ChatID) string {
	switch v := chatID.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// isBreakerSuccess decides what counts as a breaker failure.
// Only server errors (5xx) and transport errors trip the breaker; 4xx
// including 429 are answers from a healthy API.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *tg.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 400 && apiErr.Code < 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

// parseRetryAfter extracts retry_after from JSON body (primary) or HTTP header (fallback).
func parseRetryAfter(apiResp *apiResponse, httpResp *http.Response) time.Duration {
	if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
		return time.Duration(apiResp.Parameters.RetryAfter) * time.Second
	}

	if httpResp != nil {
		if retryHeader := httpResp.Header.Get("Retry-After"); retryHeader != "" {
			if seconds, err := strconv.Atoi(retryHeader); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return 0
}

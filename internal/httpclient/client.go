// Package httpclient builds the HTTP clients used to reach the Bot API.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Config holds HTTP client configuration.
type Config struct {
	// Timeouts. Zero RequestTimeout or ResponseHeaderTimeout means none.
	RequestTimeout        time.Duration
	ConnectTimeout        time.Duration
	TLSTimeout            time.Duration
	IdleTimeout           time.Duration
	ResponseHeaderTimeout time.Duration
	KeepAlive             time.Duration

	// Connection pool
	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

// DefaultConfig returns sensible defaults for Telegram API.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:      60 * time.Second,
		ConnectTimeout:      10 * time.Second,
		TLSTimeout:          10 * time.Second,
		IdleTimeout:         90 * time.Second,
		KeepAlive:           30 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config) *http.Client {
	def := DefaultConfig()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.TLSTimeout <= 0 {
		cfg.TLSTimeout = def.TLSTimeout
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = def.KeepAlive
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		TLSHandshakeTimeout:   cfg.TLSTimeout,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
	}
}

// ForLongPolling sizes a client for getUpdates with the given server-side
// timeout. The client waits a little longer than Telegram holds the request.
func ForLongPolling(timeoutSeconds int) *http.Client {
	return New(Config{
		RequestTimeout:        time.Duration(timeoutSeconds+10) * time.Second,
		ResponseHeaderTimeout: time.Duration(timeoutSeconds+5) * time.Second,
		IdleTimeout:           90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
	})
}

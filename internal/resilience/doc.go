// Package resilience provides circuit breaking, keyed rate limiting and
// backoff helpers shared by the Bot API sender and the update receiver.
// Uses sony/gobreaker for circuit breaking and golang.org/x/time/rate for rate limiting.
package resilience

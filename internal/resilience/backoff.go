package resilience

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// Sleeper abstracts time-based waiting so tests can observe delays without
// spending them.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper uses actual time.
type RealSleeper struct{}

// Sleep waits for d or until ctx is done.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff computes exponential delays with cryptographic jitter.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	Jitter  float64 // fraction of the delay added at random, 0-1
}

// DefaultBackoff returns the receiver's polling backoff.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial: time.Second,
		Max:     60 * time.Second,
		Factor:  2.0,
		Jitter:  0.25,
	}
}

// Delay returns the wait before attempt n (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := b.Factor
	if factor < 1 {
		factor = 1
	}
	delay := float64(b.Initial) * math.Pow(factor, float64(attempt-1))
	if b.Max > 0 && delay > float64(b.Max) {
		delay = float64(b.Max)
	}

	if jitterRange := int64(delay * b.Jitter); jitterRange > 0 {
		if j, err := rand.Int(rand.Reader, big.NewInt(jitterRange)); err == nil {
			delay += float64(j.Int64())
		}
	}
	return time.Duration(delay)
}

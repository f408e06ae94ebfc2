// Package retry retries establishing a database connection. Script
// statements and journal writes are never retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/loykin/snowup/internal/common"
)

// Policy controls connection attempts
type Policy struct {
	MaxRetries      int           // Retries after the first attempt; 0 means a single attempt
	InitialDelay    time.Duration // Delay before the first retry
	MaxDelay        time.Duration // Upper bound for the backoff delay
	BackoffFactor   float64       // Multiplier for exponential backoff
	RetryableErrors []string      // Lower-case substrings that mark an error transient
}

// DefaultPolicy returns the connection retry policy used by the CLI
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:    3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: []string{
			"connection refused",
			"connection reset",
			"no such host",
			"i/o timeout",
			"temporary failure",
			"service unavailable",
			"too many connections",
			"broken pipe",
		},
	}
}

// Retryable reports whether err is transient under the policy. Context
// cancellation is never retryable.
func (p Policy) Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range p.RetryableErrors {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Delay returns the wait before retry number attempt (0-based)
func (p Policy) Delay(attempt int) time.Duration {
	factor := p.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay := time.Duration(float64(p.InitialDelay) * math.Pow(factor, float64(attempt)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// retries are exhausted.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	logger := common.GetLogger().WithComponent("connect-retry")

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("connection succeeded after retry", "attempt", attempt+1)
			}
			return nil
		}
		lastErr = err

		if attempt == p.MaxRetries {
			break
		}
		if !p.Retryable(err) {
			logger.Debug("connection failed with non-retryable error", "error", err, "attempt", attempt+1)
			return err
		}

		delay := p.Delay(attempt)
		logger.Warn("connection failed, retrying",
			"error", err,
			"attempt", attempt+1,
			"max_attempts", p.MaxRetries+1,
			"retry_delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("connect cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
	}

	if p.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("connect failed after %d attempts: %w", p.MaxRetries+1, lastErr)
}

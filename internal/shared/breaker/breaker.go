package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/podcaststudio/server/internal/shared/config"
	"github.com/podcaststudio/server/internal/shared/metrics"
)

// New creates a circuit breaker for an upstream provider. State changes are
// exported through m when it is non-nil.
func New[T any](name string, cfg *config.BreakerConfig, m *metrics.Metrics) *gobreaker.CircuitBreaker[T] {
	threshold := uint32(5)
	timeout := 60 * time.Second
	maxHalfOpen := uint32(1)
	if cfg != nil {
		if cfg.FailureThreshold > 0 {
			threshold = cfg.FailureThreshold
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.MaxHalfOpen > 0 {
			maxHalfOpen = cfg.MaxHalfOpen
		}
	}

	m.SetBreakerOpen(name, false)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: maxHalfOpen,
		Interval:    60 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			m.SetBreakerOpen(name, to == gobreaker.StateOpen)
		},
	})
}

// IsOpen reports whether err was returned because the breaker rejected
// the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

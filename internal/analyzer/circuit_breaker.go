package analyzer

import (
	"scanstage/internal/config"
	"scanstage/internal/errors"
	"scanstage/internal/types"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker wraps analyzer calls with circuit breaker protection so a
// failing analysis backend degrades fast instead of queueing timeouts.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[types.DocumentSummary]
}

// NewCircuitBreaker creates a circuit breaker for analyzer operations.
// Returns nil when the breaker is disabled in configuration.
func NewCircuitBreaker(cfg *config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "analyzer",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[types.DocumentSummary](settings),
	}
}

// Execute runs the provided function with circuit breaker protection
func (cb *CircuitBreaker) Execute(fn func() (types.DocumentSummary, error)) (types.DocumentSummary, error) {
	if cb == nil || cb.cb == nil {
		// If breaker is disabled/nil, just execute the function directly
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *CircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true // If no circuit breaker, consider it healthy
	}
	return cb.cb.State() == gobreaker.StateClosed
}

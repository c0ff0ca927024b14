package analyzer

import (
	"context"

	"scanstage/internal/config"
	"scanstage/internal/errors"
	"scanstage/internal/types"
)

// Service handles document analysis for storyboard generation
type Service struct {
	Provider Provider
	breaker  *CircuitBreaker
	logger   *errors.Logger
}

// NewService creates an analysis service around the configured provider.
func NewService(cfg *config.AnalyzerConfig, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing analyzer service",
		"endpoint", cfg.Endpoint,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries,
		"circuit_breaker", cfg.CircuitBreaker.Enabled)

	provider, err := NewHTTPProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		Provider: provider,
		breaker:  NewCircuitBreaker(&cfg.CircuitBreaker, logger),
		logger:   logger,
	}, nil
}

// Analyze runs the provider through the circuit breaker and returns the
// structured document summary.
func (s *Service) Analyze(ctx context.Context, documentText string) (types.DocumentSummary, error) {
	return s.breaker.Execute(func() (types.DocumentSummary, error) {
		return s.Provider.Analyze(ctx, documentText)
	})
}

// BreakerStats exposes circuit breaker state for the stats endpoint.
func (s *Service) BreakerStats() map[string]any {
	return s.breaker.GetStats()
}

// IsHealthy reports whether the analysis backend is accepting requests.
func (s *Service) IsHealthy() bool {
	return s.breaker.IsHealthy()
}

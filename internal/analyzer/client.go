package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"scanstage/internal/config"
	"scanstage/internal/errors"
	"scanstage/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPProvider talks to a remote document analysis service over HTTP. The
// request carries the raw document text; the response body is the structured
// summary as JSON.
type HTTPProvider struct {
	endpoint   string
	apiKey     string
	maxRetries int
	client     *http.Client
	logger     *errors.Logger
}

type analyzeRequest struct {
	Document string `json:"document"`
}

// NewHTTPProvider creates a provider for the configured analysis endpoint.
func NewHTTPProvider(cfg *config.AnalyzerConfig, logger *errors.Logger) (*HTTPProvider, error) {
	if cfg.Endpoint == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Analyzer endpoint is required (set SCANSTAGE_ANALYZER_ENDPOINT environment variable)", nil)
	}

	return &HTTPProvider{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}, nil
}

// Name returns the provider identifier
func (p *HTTPProvider) Name() string {
	return "http"
}

// Analyze sends the document text to the analysis service and decodes the
// summary. Transient failures are retried up to maxRetries with a short
// backoff; 4xx responses are not retried.
func (p *HTTPProvider) Analyze(ctx context.Context, documentText string) (types.DocumentSummary, error) {
	body, err := json.Marshal(analyzeRequest{Document: documentText})
	if err != nil {
		return types.DocumentSummary{}, errors.NewInternalError(errors.ErrCodeInvalidFormat,
			"Failed to encode analyze request", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Warn("Retrying analyzer request",
				"attempt", attempt,
				"max_retries", p.maxRetries)
			select {
			case <-ctx.Done():
				return types.DocumentSummary{}, errors.NewAnalyzerError(errors.ErrCodeAnalyzerTimeout,
					"Analyzer request cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		summary, retryable, err := p.doRequest(ctx, body)
		if err == nil {
			return summary, nil
		}
		lastErr = err
		if !retryable {
			return types.DocumentSummary{}, err
		}
	}

	return types.DocumentSummary{}, errors.NewAnalyzerError(errors.ErrCodeAnalyzerFailed,
		"Analyzer request failed after retries", lastErr).
		WithContext("endpoint", p.endpoint).
		WithContext("max_retries", p.maxRetries)
}

func (p *HTTPProvider) doRequest(ctx context.Context, body []byte) (types.DocumentSummary, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return types.DocumentSummary{}, false, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Failed to build analyzer request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return types.DocumentSummary{}, true, errors.NewNetworkError(errors.ErrCodeNetworkTimeout,
			"Analyzer request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		retryable := resp.StatusCode >= 500
		return types.DocumentSummary{}, retryable, errors.NewAnalyzerError(errors.ErrCodeAnalyzerFailed,
			fmt.Sprintf("Analyzer returned status %d", resp.StatusCode), nil)
	}

	var summary types.DocumentSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return types.DocumentSummary{}, false, errors.NewAnalyzerError(errors.ErrCodeInvalidFormat,
			"Failed to decode analyzer response", err)
	}

	return summary, false, nil
}

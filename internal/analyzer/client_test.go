package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scanstage/internal/config"
	"scanstage/internal/errors"
	"scanstage/internal/types"
)

func testLogger() *errors.Logger {
	logger, _ := errors.New("error")
	return logger
}

func providerFor(t *testing.T, serverURL string, maxRetries int) *HTTPProvider {
	t.Helper()
	provider, err := NewHTTPProvider(&config.AnalyzerConfig{
		Endpoint:   serverURL,
		Timeout:    5 * time.Second,
		APIKey:     "test-key",
		MaxRetries: maxRetries,
	}, testLogger())
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	return provider
}

func TestHTTPProviderAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("X-API-Key = %q, want %q", got, "test-key")
		}

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Document != "resume text" {
			t.Errorf("document = %q, want %q", req.Document, "resume text")
		}

		_ = json.NewEncoder(w).Encode(types.DocumentSummary{
			Name:   "Ada Lovelace",
			Skills: []string{"Analysis"},
		})
	}))
	defer server.Close()

	summary, err := providerFor(t, server.URL, 0).Analyze(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if summary.Name != "Ada Lovelace" {
		t.Errorf("name = %q, want %q", summary.Name, "Ada Lovelace")
	}
	if len(summary.Skills) != 1 || summary.Skills[0] != "Analysis" {
		t.Errorf("skills = %v, want [Analysis]", summary.Skills)
	}
}

func TestHTTPProviderRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(types.DocumentSummary{Name: "Ada"})
	}))
	defer server.Close()

	summary, err := providerFor(t, server.URL, 2).Analyze(context.Background(), "doc")
	if err != nil {
		t.Fatalf("analyze failed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if summary.Name != "Ada" {
		t.Errorf("name = %q, want %q", summary.Name, "Ada")
	}
}

func TestHTTPProviderDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := providerFor(t, server.URL, 3).Analyze(context.Background(), "doc")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries on 4xx)", calls)
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeAnalyzer {
		t.Errorf("error type = %s, want %s", appErr.Type, errors.ErrorTypeAnalyzer)
	}
}

func TestNewHTTPProviderRequiresEndpoint(t *testing.T) {
	_, err := NewHTTPProvider(&config.AnalyzerConfig{}, testLogger())
	if err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewCircuitBreaker(&config.CircuitBreakerConfig{Enabled: false}, testLogger())
	if cb != nil {
		t.Fatal("disabled breaker should be nil")
	}

	// A nil breaker passes calls straight through.
	summary, err := cb.Execute(func() (types.DocumentSummary, error) {
		return types.DocumentSummary{Name: "direct"}, nil
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if summary.Name != "direct" {
		t.Errorf("name = %q, want %q", summary.Name, "direct")
	}
	if !cb.IsHealthy() {
		t.Error("nil breaker should report healthy")
	}
	if stats := cb.GetStats(); stats["enabled"] != false {
		t.Errorf("stats enabled = %v, want false", stats["enabled"])
	}
}

func TestCircuitBreakerOpensOnFailures(t *testing.T) {
	cb := NewCircuitBreaker(&config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}, testLogger())

	failing := func() (types.DocumentSummary, error) {
		return types.DocumentSummary{}, errors.NewAnalyzerError(errors.ErrCodeAnalyzerFailed, "boom", nil)
	}
	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(failing)
	}

	if cb.IsHealthy() {
		t.Error("breaker should be open after repeated failures")
	}
	if stats := cb.GetStats(); stats["state"] != "open" {
		t.Errorf("stats state = %v, want open", stats["state"])
	}
}

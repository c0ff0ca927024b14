package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scanstage/internal/analyzer"
	"scanstage/internal/config"
	"scanstage/internal/errors"
	"scanstage/internal/observability"
	"scanstage/internal/types"
)

func testLogger() *errors.Logger {
	logger, _ := errors.New("error")
	return logger
}

func testObservability(t *testing.T) *observability.ObservabilityManager {
	t.Helper()
	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("failed to create observability manager: %v", err)
	}
	return om
}

func testServer(cfg ServerConfig) *Server {
	appCfg := &config.Config{}
	return NewServer(appCfg, cfg, testLogger())
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegionsHandler(t *testing.T) {
	s := testServer(ServerConfig{})
	handler := s.createRegionsHandler(testObservability(t))

	rec := postJSON(t, handler, RegionsRequest{
		Summary: types.DocumentSummary{
			Name:   "Ada Lovelace",
			Email:  "ada@example.com",
			Skills: []string{"Analysis", "Mathematics"},
		},
	}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var out types.RegionsOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out.Regions) != 3 {
		t.Fatalf("region count = %d, want 3", len(out.Regions))
	}
	wantKinds := []types.RegionKind{types.KindName, types.KindContact, types.KindSkills}
	for i, kind := range wantKinds {
		if out.Regions[i].Kind != kind {
			t.Errorf("region[%d].Kind = %s, want %s", i, out.Regions[i].Kind, kind)
		}
	}
}

func TestRegionsHandlerEmptySummary(t *testing.T) {
	s := testServer(ServerConfig{})
	handler := s.createRegionsHandler(testObservability(t))

	rec := postJSON(t, handler, RegionsRequest{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out types.RegionsOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out.Regions) != 0 {
		t.Errorf("region count = %d, want 0 for empty summary", len(out.Regions))
	}
}

func TestRegionsHandlerRequiresJSONContentType(t *testing.T) {
	s := testServer(ServerConfig{})
	handler := s.createRegionsHandler(testObservability(t))

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for wrong content type", rec.Code)
	}
}

func TestStoryboardHandlerFromRegions(t *testing.T) {
	s := testServer(ServerConfig{})
	handler := s.createStoryboardHandler(testObservability(t))

	rec := postJSON(t, handler, StoryboardRequest{
		Regions: []types.Region{
			{Kind: types.KindName, Text: "Ada", Box: types.BoundingBox{X: 60, Y: 40, Width: 680, Height: 90}, Confidence: 0.98},
		},
	}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var out types.StoryboardOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.Demo {
		t.Error("demo = true, want false when regions were supplied")
	}
	if out.Canvas.Width != 800 || out.Canvas.Height != 1000 {
		t.Errorf("canvas = %+v, want 800x1000", out.Canvas)
	}
	if len(out.Events) == 0 {
		t.Fatal("expected events in storyboard")
	}
	if last := out.Events[len(out.Events)-1]; last.Action != types.ActionComplete {
		t.Errorf("last event action = %s, want complete", last.Action)
	}
}

func TestStoryboardHandlerDemoFallback(t *testing.T) {
	s := testServer(ServerConfig{})
	handler := s.createStoryboardHandler(testObservability(t))

	rec := postJSON(t, handler, StoryboardRequest{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out types.StoryboardOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !out.Demo {
		t.Error("demo = false, want true for empty input")
	}
	if len(out.Regions) != 5 {
		t.Errorf("demo region count = %d, want 5", len(out.Regions))
	}
}

func TestAnalyzeHandlerMissingDocument(t *testing.T) {
	s := testServer(ServerConfig{})
	handler := s.createAnalyzeHandler(testObservability(t))

	rec := postJSON(t, handler, AnalyzeRequest{Document: "   "}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for blank document", rec.Code)
	}
}

func TestAnalyzeHandlerUnavailableWithoutBackend(t *testing.T) {
	s := testServer(ServerConfig{})
	handler := s.createAnalyzeHandler(testObservability(t))

	rec := postJSON(t, handler, AnalyzeRequest{Document: "resume text"}, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when no analyzer is configured", rec.Code)
	}
}

func TestAnalyzeHandlerEndToEnd(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(types.DocumentSummary{
			Name:   "Ada Lovelace",
			Skills: []string{"Analysis"},
		})
	}))
	defer backend.Close()

	s := testServer(ServerConfig{MaxRequestSize: 1024 * 1024})
	svc, err := analyzer.NewService(&config.AnalyzerConfig{
		Endpoint: backend.URL,
		Timeout:  5 * time.Second,
	}, testLogger())
	if err != nil {
		t.Fatalf("failed to create analyzer service: %v", err)
	}
	s.Analyzer = svc

	handler := s.createAnalyzeHandler(testObservability(t))
	rec := postJSON(t, handler, AnalyzeRequest{Document: "resume text"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var out types.StoryboardOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.Demo {
		t.Error("demo = true, want false for analyzable document")
	}
	if len(out.Regions) != 2 {
		t.Fatalf("region count = %d, want 2 (name, skills)", len(out.Regions))
	}
	if out.Regions[0].Text != "Ada Lovelace" {
		t.Errorf("region[0].Text = %q, want %q", out.Regions[0].Text, "Ada Lovelace")
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := testServer(ServerConfig{APIKeys: []string{"secret-key-123456"}})
	var called bool
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	// Missing key
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for missing key", rec.Code)
	}

	// Invalid key
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for invalid key", rec.Code)
	}

	// Valid key via header
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-API-Key", "secret-key-123456")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK || !called {
		t.Errorf("status = %d (called=%v), want 200 for valid key", rec.Code, called)
	}

	// Valid key via Bearer token
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer secret-key-123456")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for bearer token", rec.Code)
	}
}

func TestAuthMiddlewareSkippedWithoutKeys(t *testing.T) {
	s := testServer(ServerConfig{})
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when no keys configured", rec.Code)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	s := testServer(ServerConfig{MaxRequestSize: 64})
	handler := s.requestSizeLimitMiddleware()(s.createRegionsHandler(testObservability(t)))

	big := RegionsRequest{Summary: types.DocumentSummary{
		Name: "A very long name that pushes the payload well past the limit of sixty four bytes",
	}}
	rec := postJSON(t, handler, big, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for oversized body", rec.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := testServer(ServerConfig{
		RateLimit: &config.RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 1,
			BurstCapacity:  1,
			ByIP:           true,
		},
	})
	defer s.RateLimiter.Close()

	handler := s.createRateLimitMiddleware(testObservability(t))(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "203.0.113.7:4321"

	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
}

func TestRateLimiterSeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, 1, testLogger())
	defer rl.Close()

	if !rl.Allow("ip:10.0.0.1") {
		t.Error("first request for key should be allowed")
	}
	if rl.Allow("ip:10.0.0.1") {
		t.Error("second request for same key should be rejected")
	}
	if !rl.Allow("ip:10.0.0.2") {
		t.Error("request for different key should be allowed")
	}

	stats := rl.GetStats()
	if stats["active_limiters"] != 2 {
		t.Errorf("active_limiters = %v, want 2", stats["active_limiters"])
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.1:1234",
			want:       "192.0.2.1",
		},
		{
			name:       "x-forwarded-for wins",
			remoteAddr: "192.0.2.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 192.0.2.9"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "192.0.2.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.6"},
			want:       "203.0.113.6",
		},
		{
			name:       "invalid forwarded entries skipped",
			remoteAddr: "192.0.2.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip, 203.0.113.8"},
			want:       "203.0.113.8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	s := testServer(ServerConfig{Version: "test"})

	rec := httptest.NewRecorder()
	s.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", out["status"])
	}
	analyzerStatus, ok := out["analyzer"].(map[string]any)
	if !ok {
		t.Fatal("missing analyzer status")
	}
	if analyzerStatus["available"] != false {
		t.Errorf("analyzer available = %v, want false without backend", analyzerStatus["available"])
	}
}

func TestHealthHandlerRejectsPost(t *testing.T) {
	s := testServer(ServerConfig{})

	rec := httptest.NewRecorder()
	s.healthHandler(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	s := testServer(ServerConfig{
		Version:        "test",
		MaxRequestSize: 2048,
	})

	rec := httptest.NewRecorder()
	s.statsHandler(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	rateLimiting, ok := out["rate_limiting"].(map[string]any)
	if !ok {
		t.Fatal("missing rate_limiting section")
	}
	if rateLimiting["enabled"] != false {
		t.Errorf("rate limiting enabled = %v, want false", rateLimiting["enabled"])
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "****" {
		t.Errorf("maskAPIKey(short) = %q, want ****", got)
	}
	if got := maskAPIKey("abcdefgh12345678"); got != "abcdefgh****" {
		t.Errorf("maskAPIKey(long) = %q, want abcdefgh****", got)
	}
}

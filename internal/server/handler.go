package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"scanstage/internal/observability"
	"scanstage/internal/regions"
	"scanstage/internal/storyboard"
	"scanstage/internal/types"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// createRegionsHandler wraps the region extraction handler with observability
func (s *Server) createRegionsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("scanstage.api")
		_, span := tracer.Start(ctx, "api.regions")
		defer span.End()

		var req RegionsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		extracted := regions.Extract(req.Summary)
		result := types.RegionsOutput{Regions: extracted}

		span.SetAttributes(
			attribute.String("operation", "regions"),
			attribute.Bool("request.summary_empty", req.Summary.IsEmpty()),
			attribute.Int("response.region_count", len(extracted)),
		)

		writeJSONResponse(w, span, result)
	}
}

// createStoryboardHandler wraps the storyboard handler with observability
func (s *Server) createStoryboardHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("scanstage.api")
		ctx, span := tracer.Start(ctx, "api.storyboard")
		defer span.End()

		var req StoryboardRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		regionList := req.Regions
		if len(regionList) == 0 {
			regionList = regions.Extract(req.Summary)
		}

		result := s.assembleStoryboard(ctx, om, regionList)

		span.SetAttributes(
			attribute.String("operation", "storyboard"),
			attribute.Bool("response.demo", result.Demo),
			attribute.Int("response.region_count", len(result.Regions)),
			attribute.Int("response.event_count", len(result.Events)),
		)

		writeJSONResponse(w, span, result)
	}
}

// createAnalyzeHandler wraps the analyze handler with observability
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("scanstage.api")
		ctx, span := tracer.Start(ctx, "api.analyze")
		defer span.End()

		var req AnalyzeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Document) == "" {
			err := fmt.Errorf("missing document text")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing document", "document field is required", http.StatusBadRequest)
			return
		}

		if s.MaxRequestSize > 0 && len(req.Document) > int(s.MaxRequestSize) {
			err := fmt.Errorf("document too large: %d chars", len(req.Document))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Document too large", fmt.Sprintf("document exceeds size limit of %d characters", s.MaxRequestSize), http.StatusBadRequest)
			return
		}

		if s.Analyzer == nil {
			err := fmt.Errorf("analyzer backend not configured")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "unavailable"))
			writeErrorResponse(w, "Analyzer unavailable", "no analysis endpoint is configured", http.StatusServiceUnavailable)
			return
		}

		span.SetAttributes(
			attribute.Int("request.document_length", len(req.Document)),
			attribute.String("operation", "analyze"),
		)

		metrics := om.GetMetrics()
		var summary types.DocumentSummary
		err := metrics.TrackAnalyzerOperation(ctx, "analyze", func(ctx context.Context) error {
			var analyzeErr error
			summary, analyzeErr = s.Analyzer.Analyze(ctx, req.Document)
			return analyzeErr
		})
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "analyzer"))
			writeErrorResponse(w, "Failed to analyze document", err.Error(), http.StatusInternalServerError)
			return
		}

		result := s.assembleStoryboard(ctx, om, regions.Extract(summary))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Bool("response.demo", result.Demo),
			attribute.Int("response.region_count", len(result.Regions)),
			attribute.Int("response.event_count", len(result.Events)),
		)

		writeJSONResponse(w, span, result)
	}
}

// writeJSONResponse encodes the payload, recording encode failures on the span.
func writeJSONResponse(w http.ResponseWriter, span oteltrace.Span, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// assembleStoryboard builds the timeline for the given regions, substituting
// the built-in demo when nothing was detected, and records build metrics.
func (s *Server) assembleStoryboard(ctx context.Context, om *observability.ObservabilityManager, regionList []types.Region) types.StoryboardOutput {
	start := time.Now()

	demo := len(regionList) == 0
	if demo {
		regionList = storyboard.DemoRegions()
	}
	events := storyboard.Build(regionList, storyboard.Canvas)

	metrics := om.GetMetrics()
	metrics.RecordStoryboardBuilt(ctx, time.Since(start), len(regionList), len(events), demo)
	// Every storyboard handed out backs one playback session on the client.
	metrics.RecordPlaybackSession(ctx, attribute.Bool("demo", demo))

	return types.StoryboardOutput{
		Canvas:  storyboard.Canvas,
		Regions: regionList,
		Events:  events,
		Demo:    demo,
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		limited := originalMiddleware(next)

		return func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			limited(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				om.GetMetrics().RecordRateLimitHit(r.Context(),
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		}
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

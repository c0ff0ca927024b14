package analyzer

import (
	"context"

	"scanstage/internal/types"
)

// Provider abstracts the external document analysis backend. The engine
// treats it as a black box: it hands over raw document text and receives a
// structured summary, nothing about how the summary was produced leaks out.
type Provider interface {
	// Analyze extracts a structured summary from raw document text.
	Analyze(ctx context.Context, documentText string) (types.DocumentSummary, error)

	// Name returns the provider identifier for logging and stats.
	Name() string
}

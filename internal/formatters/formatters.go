package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"scanstage/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "RegionsOutput", &RegionsTextFormatter{})
	registry.RegisterFormatter("markdown", "RegionsOutput", &RegionsMarkdownFormatter{})
	registry.RegisterFormatter("text", "StoryboardOutput", &StoryboardTextFormatter{})
	registry.RegisterFormatter("markdown", "StoryboardOutput", &StoryboardMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.RegionsOutput:
		return "RegionsOutput"
	case types.StoryboardOutput:
		return "StoryboardOutput"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// RegionsTextFormatter handles text formatting for extracted regions
type RegionsTextFormatter struct{}

func (rtf *RegionsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.RegionsOutput)
	if !ok {
		return "", fmt.Errorf("expected RegionsOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== DETECTED REGIONS ===\n\n")
	if len(result.Regions) == 0 {
		output.WriteString("No regions detected.\n")
		return output.String(), nil
	}

	for i, region := range result.Regions {
		output.WriteString(fmt.Sprintf("%d. %s (confidence %.2f)\n", i+1, region.Kind.Label(), region.Confidence))
		output.WriteString(fmt.Sprintf("   Box: x=%g y=%g w=%g h=%g\n",
			region.Box.X, region.Box.Y, region.Box.Width, region.Box.Height))
		output.WriteString("   Text: ")
		output.WriteString(region.Text)
		output.WriteString("\n\n")
	}

	return output.String(), nil
}

func (rtf *RegionsTextFormatter) SupportedType() string {
	return "RegionsOutput"
}

// RegionsMarkdownFormatter handles markdown formatting for extracted regions
type RegionsMarkdownFormatter struct{}

func (rmf *RegionsMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.RegionsOutput)
	if !ok {
		return "", fmt.Errorf("expected RegionsOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Detected Regions\n\n")
	if len(result.Regions) == 0 {
		output.WriteString("No regions detected.\n")
		return output.String(), nil
	}

	output.WriteString("| # | Section | Confidence | Box | Text |\n")
	output.WriteString("|---|---------|------------|-----|------|\n")
	for i, region := range result.Regions {
		output.WriteString(fmt.Sprintf("| %d | %s | %.2f | %g,%g %gx%g | %s |\n",
			i+1, region.Kind.Label(), region.Confidence,
			region.Box.X, region.Box.Y, region.Box.Width, region.Box.Height,
			region.Text))
	}

	return output.String(), nil
}

func (rmf *RegionsMarkdownFormatter) SupportedType() string {
	return "RegionsOutput"
}

// StoryboardTextFormatter handles text formatting for storyboard results
type StoryboardTextFormatter struct{}

func (stf *StoryboardTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.StoryboardOutput)
	if !ok {
		return "", fmt.Errorf("expected StoryboardOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== SCAN STORYBOARD ===\n\n")
	output.WriteString(fmt.Sprintf("Canvas: %gx%g\n", result.Canvas.Width, result.Canvas.Height))
	output.WriteString(fmt.Sprintf("Regions: %d\n", len(result.Regions)))
	output.WriteString(fmt.Sprintf("Events: %d\n", len(result.Events)))
	if result.Demo {
		output.WriteString("Mode: demo (no regions detected)\n")
	}
	output.WriteString("\n=== TIMELINE ===\n\n")

	for _, event := range result.Events {
		output.WriteString(fmt.Sprintf("%8dms  %-12s  (%g, %g)",
			event.Timestamp, event.Action, event.Position.X, event.Position.Y))
		if event.Label != "" {
			output.WriteString("  ")
			output.WriteString(event.Label)
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (stf *StoryboardTextFormatter) SupportedType() string {
	return "StoryboardOutput"
}

// StoryboardMarkdownFormatter handles markdown formatting for storyboard results
type StoryboardMarkdownFormatter struct{}

func (smf *StoryboardMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.StoryboardOutput)
	if !ok {
		return "", fmt.Errorf("expected StoryboardOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Scan Storyboard\n\n")
	output.WriteString(fmt.Sprintf("**Canvas:** %gx%g\n\n", result.Canvas.Width, result.Canvas.Height))
	output.WriteString(fmt.Sprintf("**Regions:** %d\n\n", len(result.Regions)))
	output.WriteString(fmt.Sprintf("**Events:** %d\n\n", len(result.Events)))
	if result.Demo {
		output.WriteString("**Mode:** demo (no regions detected)\n\n")
	}

	output.WriteString("## Timeline\n\n")
	output.WriteString("| Time (ms) | Action | Position | Label |\n")
	output.WriteString("|-----------|--------|----------|-------|\n")
	for _, event := range result.Events {
		output.WriteString(fmt.Sprintf("| %d | %s | %g, %g | %s |\n",
			event.Timestamp, event.Action, event.Position.X, event.Position.Y, event.Label))
	}

	return output.String(), nil
}

func (smf *StoryboardMarkdownFormatter) SupportedType() string {
	return "StoryboardOutput"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()

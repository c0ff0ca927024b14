package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"scanstage/internal/common"
	"scanstage/internal/regions"
	"scanstage/internal/storyboard"
	"scanstage/internal/types"

	"github.com/spf13/cobra"
)

var storyboardCmd = &cobra.Command{
	Use:   "storyboard [summary-file]",
	Short: "Build an animation storyboard from a document summary",
	Long: `Build a timed animation storyboard from a document analysis summary.
The command takes the path to a JSON summary file, extracts typed regions
from it and schedules the full scan timeline: approach, pause, glow, tag
pop-out and beam transfer per region, ending in a single complete event.

When no summary is given, or the summary yields no regions, the built-in
demo storyboard is produced instead.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if storyboardConfig.OutputFormat == "" {
			storyboardConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(storyboardConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runStoryboard,
}

var (
	storyboardConfig common.CommandConfig
	storyboardDemo   bool
)

func init() {
	storyboardCmd.Flags().StringVarP(&storyboardConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	storyboardCmd.Flags().StringVar(&storyboardConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	storyboardCmd.Flags().BoolVar(&storyboardDemo, "demo", false, "Build the built-in demo storyboard instead of reading a summary")

	_ = storyboardCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runStoryboard(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	if storyboardDemo || len(args) == 0 {
		logger.Info("Building demo storyboard", "output_format", storyboardConfig.OutputFormat)
		outputHandler := common.NewOutputHandler(logger)
		return outputHandler.HandleOutput(buildStoryboard(nil), storyboardConfig)
	}

	createInput := func(contents []string) (types.DocumentSummary, error) {
		if len(contents) != 1 {
			return types.DocumentSummary{}, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		var summary types.DocumentSummary
		if err := json.Unmarshal([]byte(contents[0]), &summary); err != nil {
			return types.DocumentSummary{}, fmt.Errorf("failed to parse summary file: %w", err)
		}
		return summary, nil
	}

	logDetails := func(input types.DocumentSummary, cfg common.CommandConfig) {
		logger.Info("Starting storyboard build",
			"summary_empty", input.IsEmpty(),
			"output_format", cfg.OutputFormat)
	}

	buildOperation := func(ctx context.Context, summary types.DocumentSummary) (types.StoryboardOutput, error) {
		return buildStoryboard(regions.Extract(summary)), nil
	}

	err := common.RunDocumentCommand(
		cmd.Context(),
		logger,
		storyboardConfig,
		args,
		createInput,
		buildOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to build storyboard: %w", err)
	}
	logger.Info("Storyboard build completed successfully")
	return nil
}

// buildStoryboard assembles the output bundle, substituting the demo
// sequence when no regions were detected.
func buildStoryboard(regionList []types.Region) types.StoryboardOutput {
	demo := len(regionList) == 0
	if demo {
		regionList = storyboard.DemoRegions()
	}

	return types.StoryboardOutput{
		Canvas:  storyboard.Canvas,
		Regions: regionList,
		Events:  storyboard.Build(regionList, storyboard.Canvas),
		Demo:    demo,
	}
}

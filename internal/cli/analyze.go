package cli

import (
	"context"
	"fmt"

	"scanstage/internal/analyzer"
	"scanstage/internal/common"
	"scanstage/internal/regions"
	"scanstage/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [document-file]",
	Short: "Analyze a document and build its scan storyboard",
	Long: `Analyze raw document text with the configured analysis service and
build the full scan storyboard in one step. The command takes one
argument: the path to a plain text document (for example a resume).

Requires an analysis endpoint (set analyzer.endpoint in the config file
or the SCANSTAGE_ANALYZER_ENDPOINT environment variable).`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	analyzerService, err := analyzer.NewService(&cfg.Analyzer, logger)
	if err != nil {
		return fmt.Errorf("failed to create analyzer service: %w", err)
	}

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	logDetails := func(input string, cfg common.CommandConfig) {
		logger.Info("Starting document analysis",
			"document_chars", len(input),
			"output_format", cfg.OutputFormat)
	}

	analyzeOperation := func(ctx context.Context, documentText string) (types.StoryboardOutput, error) {
		summary, err := analyzerService.Analyze(ctx, documentText)
		if err != nil {
			return types.StoryboardOutput{}, err
		}
		return buildStoryboard(regions.Extract(summary)), nil
	}

	err = common.RunDocumentCommand(
		cmd.Context(),
		logger,
		analyzeConfig,
		args,
		createInput,
		analyzeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze document: %w", err)
	}
	logger.Info("Document analysis completed successfully")
	return nil
}

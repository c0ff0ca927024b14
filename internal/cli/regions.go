package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"scanstage/internal/common"
	"scanstage/internal/regions"
	"scanstage/internal/types"

	"github.com/spf13/cobra"
)

var regionsCmd = &cobra.Command{
	Use:   "regions [summary-file]",
	Short: "Extract typed canvas regions from a document summary",
	Long: `Extract typed canvas regions from a document analysis summary.
The command takes one argument: the path to a JSON file containing the
structured summary (name, contact, skills, experience, education). One
region is emitted per populated field group, in fixed document order.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if regionsConfig.OutputFormat == "" {
			regionsConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(regionsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runRegions,
}

var regionsConfig common.CommandConfig

func init() {
	regionsCmd.Flags().StringVarP(&regionsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	regionsCmd.Flags().StringVar(&regionsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = regionsCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runRegions(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

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
		logger.Info("Starting region extraction",
			"summary_empty", input.IsEmpty(),
			"output_format", cfg.OutputFormat)
	}

	extractOperation := func(ctx context.Context, summary types.DocumentSummary) (types.RegionsOutput, error) {
		return types.RegionsOutput{Regions: regions.Extract(summary)}, nil
	}

	err := common.RunDocumentCommand(
		cmd.Context(),
		logger,
		regionsConfig,
		args,
		createInput,
		extractOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to extract regions: %w", err)
	}
	logger.Info("Region extraction completed successfully")
	return nil
}

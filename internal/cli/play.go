package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"scanstage/internal/common"
	"scanstage/internal/errors"
	"scanstage/internal/playback"
	"scanstage/internal/regions"
	"scanstage/internal/types"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [storyboard-file]",
	Short: "Play back a storyboard in the terminal",
	Long: `Play back a storyboard event by event in real time, printing each
event as its timestamp is reached. The command takes the path to a
storyboard JSON file as produced by the storyboard or analyze commands;
a document summary JSON is also accepted and converted on the fly.

When no file is given the built-in demo storyboard is played. Playback
speed can be scaled with --speed (2.0 plays twice as fast); --skip
prints the whole timeline immediately.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

var (
	playSpeed float64
	playSkip  bool
)

func init() {
	playCmd.Flags().Float64Var(&playSpeed, "speed", 0, "Playback speed multiplier (default from config)")
	playCmd.Flags().BoolVar(&playSkip, "skip", false, "Skip playback and print all events immediately")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	sb, err := loadStoryboard(logger, args)
	if err != nil {
		return err
	}

	speed := playSpeed
	if speed <= 0 {
		speed = cfg.Playback.Speed
	}

	session := playback.NewSession(sb.Events, time.Now())
	logger.Info("Starting playback session",
		"session_id", session.ID,
		"events", len(sb.Events),
		"speed", speed,
		"demo", sb.Demo)

	if playSkip {
		for _, event := range session.SkipToEnd() {
			printEvent(event)
		}
		return nil
	}

	err = session.Run(cmd.Context(), cfg.Playback.FrameInterval, speed, printEvent)
	if err != nil {
		logger.Info("Playback cancelled",
			"session_id", session.ID,
			"remaining_events", session.Remaining())
		return err
	}

	logger.Info("Playback completed", "session_id", session.ID)
	return nil
}

// loadStoryboard reads the storyboard file, falling back to the demo
// sequence when no file is given.
func loadStoryboard(logger *errors.Logger, args []string) (types.StoryboardOutput, error) {
	if len(args) == 0 {
		return buildStoryboard(nil), nil
	}

	fileProcessor := common.NewFileProcessor(logger)
	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return types.StoryboardOutput{}, err
	}

	var sb types.StoryboardOutput
	if err := json.Unmarshal([]byte(contents[0]), &sb); err != nil {
		return types.StoryboardOutput{}, fmt.Errorf("failed to parse storyboard file: %w", err)
	}
	if len(sb.Events) > 0 {
		return sb, nil
	}

	// Not a storyboard; a raw document summary is also accepted.
	var summary types.DocumentSummary
	if err := json.Unmarshal([]byte(contents[0]), &summary); err == nil && !summary.IsEmpty() {
		return buildStoryboard(regions.Extract(summary)), nil
	}

	return types.StoryboardOutput{}, fmt.Errorf("file contains neither storyboard events nor a document summary")
}

// printEvent renders one timeline event as a terminal line.
func printEvent(event types.AnimationEvent) {
	line := fmt.Sprintf("%7.1fs  %-12s (%.0f, %.0f)",
		float64(event.Timestamp)/1000, event.Action, event.Position.X, event.Position.Y)
	if event.Label != "" {
		line += "  " + event.Label
	}
	fmt.Println(line)
}

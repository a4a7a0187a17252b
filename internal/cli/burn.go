package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/old-castle-fansubs/vobsub/internal/video"
	"github.com/spf13/cobra"
)

var burnCmd = &cobra.Command{
	Use:   "burn [video_file] [subtitle_file]",
	Short: "Burn a converted subtitle file onto a video",
	Long: `Burn a finished text subtitle file onto a video for players that
cannot render external subtitles.

Examples:
  vobsub burn movie.mp4 movie.srt
  vobsub burn movie.mp4 movie.ass -o movie.hardsub.mp4`,
	Args: cobra.ExactArgs(2),
	RunE: runBurn,
}

func init() {
	rootCmd.AddCommand(burnCmd)
}

func runBurn(cmd *cobra.Command, args []string) error {
	videoPath, subtitlePath := args[0], args[1]

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
		outputPath = base + ".hardsub" + filepath.Ext(videoPath)
	}

	logger.Infow("Burning subtitles",
		"video", videoPath,
		"subtitles", subtitlePath,
		"output", outputPath,
	)

	renderer := video.NewRenderer()
	err := renderer.BurnSubtitles(
		context.Background(),
		videoPath,
		subtitlePath,
		outputPath,
	)
	if err != nil {
		return fmt.Errorf("burn-in failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles burned successfully: %s\n", absOutput)

	return nil
}

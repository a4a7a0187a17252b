package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/old-castle-fansubs/vobsub/internal/video"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview [image_dir]",
	Short: "Render dumped caption images into a slideshow video",
	Long: `Render a directory of dumped caption images (as produced by
"vobsub dump") into a slideshow video for quick visual review.

Examples:
  vobsub preview captions/
  vobsub preview captions/ -o review.mp4 --seconds 3`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().
		Float64("seconds", 2, "Seconds each caption stays on screen")
}

func runPreview(cmd *cobra.Command, args []string) error {
	imageDir := args[0]

	seconds, _ := cmd.Flags().GetFloat64("seconds")
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = filepath.Clean(imageDir) + ".mp4"
	}

	logger.Infow("Rendering caption preview",
		"images", imageDir,
		"output", outputPath,
		"seconds_per_caption", seconds,
	)

	renderer := video.NewRenderer()
	err := renderer.RenderSlideshow(
		context.Background(),
		filepath.Join(imageDir, "caption_%04d.png"),
		outputPath,
		video.SlideshowOptions{SecondsPerCaption: seconds},
	)
	if err != nil {
		return fmt.Errorf("preview rendering failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Preview rendered successfully: %s\n", absOutput)

	return nil
}

package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// defines interface for rendering decoded captions
type Renderer interface {
	// renders a directory of dumped caption images into a slideshow video
	RenderSlideshow(
		ctx context.Context,
		imagePattern, outputPath string,
		opts SlideshowOptions,
	) error

	// burns a finished subtitle file onto an existing video
	BurnSubtitles(
		ctx context.Context,
		videoPath, subtitlePath, outputPath string,
	) error
}

// holds options for slideshow rendering
type SlideshowOptions struct {
	SecondsPerCaption float64
}

// returns sensible defaults for slideshow rendering
func DefaultSlideshowOptions() SlideshowOptions {
	return SlideshowOptions{
		SecondsPerCaption: 2,
	}
}

// default implementation using ffmpeg
type DefaultRenderer struct{}

func NewRenderer() *DefaultRenderer {
	return &DefaultRenderer{}
}

// renders dumped caption images (a printf-style pattern such as
// dump/caption_%04d.png) into a video, one caption per slide
func (r *DefaultRenderer) RenderSlideshow(
	ctx context.Context,
	imagePattern, outputPath string,
	opts SlideshowOptions,
) error {
	seconds := opts.SecondsPerCaption
	if seconds <= 0 {
		seconds = DefaultSlideshowOptions().SecondsPerCaption
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	err := ffmpeg.Input(imagePattern, ffmpeg.KwArgs{
		"framerate": 1 / seconds,
	}).
		Output(outputPath, ffmpeg.KwArgs{
			"c:v":     "libx264",
			"pix_fmt": "yuv420p",
			// caption bitmaps can have odd dimensions, libx264 cannot
			"vf": "pad=ceil(iw/2)*2:ceil(ih/2)*2",
			"r":  25,
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg slideshow rendering failed: %w", err)
	}

	return nil
}

// burns a subtitle file onto a video
func (r *DefaultRenderer) BurnSubtitles(
	ctx context.Context,
	videoPath, subtitlePath, outputPath string,
) error {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}
	if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	err := ffmpeg.Input(videoPath).
		Output(outputPath, ffmpeg.KwArgs{
			"vf":  fmt.Sprintf("subtitles=%s", subtitlePath),
			"c:a": "copy",
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg subtitle burn-in failed: %w", err)
	}

	return nil
}

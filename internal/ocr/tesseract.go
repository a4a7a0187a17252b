package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strings"
)

// implements Engine using a local tesseract binary
type TesseractEngine struct {
	binary   string
	language string
}

func NewTesseractEngine(opts Options) (*TesseractEngine, error) {
	binary, err := exec.LookPath("tesseract")
	if err != nil {
		return nil, fmt.Errorf("tesseract binary not found in PATH: %w", err)
	}

	language := opts.Language
	if language == "" {
		language = "eng"
	}

	return &TesseractEngine{
		binary:   binary,
		language: language,
	}, nil
}

func (e *TesseractEngine) Recognize(
	ctx context.Context,
	img image.Image,
) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	// PSM 6: assume a single uniform block of text
	cmd := exec.CommandContext(ctx, e.binary,
		"stdin", "stdout",
		"-l", e.language,
		"--psm", "6",
	)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w (%s)",
			err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (e *TesseractEngine) Close() error {
	return nil
}

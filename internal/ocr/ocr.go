package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
)

// interface for recognizing caption text in a decoded subtitle bitmap
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// text recognition provider
type Provider string

const (
	ProviderTesseract Provider = "tesseract"
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

type Options struct {
	Language string // ISO 639 code of the caption language
	Model    string
	Prompt   string // extra instructions for LLM providers
}

// creates Engine based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Engine, error) {
	switch provider {
	case ProviderTesseract:
		return NewTesseractEngine(opts)
	case ProviderGemini:
		return NewGeminiEngine(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIEngine(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicEngine(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s", provider)
	}
}

// BuildPrompt creates the recognition prompt for LLM providers
func BuildPrompt(opts Options) string {
	var sb strings.Builder

	if opts.Language != "" {
		sb.WriteString(fmt.Sprintf(
			"The image is a DVD subtitle bitmap with %s text.\n",
			opts.Language,
		))
	} else {
		sb.WriteString("The image is a DVD subtitle bitmap.\n")
	}

	sb.WriteString("Transcribe the caption exactly as shown.\n")
	sb.WriteString("Preserve line breaks.\n")
	sb.WriteString("Return only the caption text, without quotes, ")
	sb.WriteString("markdown or explanation.\n")
	sb.WriteString("Return an empty response if the image holds no text.\n")

	if opts.Prompt != "" {
		sb.WriteString(fmt.Sprintf("Additional instructions: %s\n", opts.Prompt))
	}

	return sb.String()
}

// encodes a decoded caption as PNG for transport to the provider
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode caption image: %w", err)
	}
	return buf.Bytes(), nil
}

// strips the wrapping quotes and fences models occasionally add
func cleanRecognizedText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

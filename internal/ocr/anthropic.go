package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Engine using Anthropic Claude vision
type AnthropicEngine struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicEngine(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicEngine{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (e *AnthropicEngine) Recognize(
	ctx context.Context,
	img image.Image,
) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	message, err := e.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     e.model,
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewImageBlockBase64(
						"image/png",
						base64.StdEncoding.EncodeToString(data),
					),
					anthropic.NewTextBlock(BuildPrompt(e.options)),
				),
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	if message == nil || len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	return cleanRecognizedText(responseText), nil
}

func (e *AnthropicEngine) Close() error {
	return nil
}

package ocr

import (
	"context"
	"fmt"
	"image"

	"google.golang.org/genai"
)

// implements Engine using Google Gemini vision
type GeminiEngine struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiEngine(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiEngine{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (e *GeminiEngine) Recognize(
	ctx context.Context,
	img image.Image,
) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, "image/png"),
		genai.NewPartFromText(BuildPrompt(e.options)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
		if responseText != "" {
			break
		}
	}

	return cleanRecognizedText(responseText), nil
}

func (e *GeminiEngine) Close() error {
	return nil
}

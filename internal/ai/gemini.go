package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// GeminiRenderer implements Renderer using Google's Gemini models.
type GeminiRenderer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiRenderer initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiRenderer(ctx context.Context, apiKey, modelName string) (*GeminiRenderer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	model := client.GenerativeModel(modelName)

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.6)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))

	return &GeminiRenderer{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (r *GeminiRenderer) Close() {
	r.client.Close()
}

func (r *GeminiRenderer) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	prompt, err := buildRenderPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := r.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return []byte(cleanJSONString(text.String())), nil
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

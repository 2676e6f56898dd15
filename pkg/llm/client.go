package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generator produces text completions from a named model
type Generator interface {
	// Generate returns the text of a single completion of prompt
	Generate(ctx context.Context, model, prompt string) (string, error)
	// Ping reports whether model can currently serve requests
	Ping(ctx context.Context, model string) error
}

// GenAIClient implements Generator using Google's GenAI SDK
type GenAIClient struct {
	client *genai.Client
	config *genai.GenerateContentConfig
}

// NewGenAIClient creates a Gemini-backed Generator
func NewGenAIClient(ctx context.Context, apiKey string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{
		client: client,
		config: &genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0.7),
		},
	}, nil
}

// Generate sends prompt as a single user turn
func (c *GenAIClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), c.config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with %s: %w", model, err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("LLM API error: empty response from %s", model)
	}
	return text, nil
}

// Ping looks the model up without spending a generation
func (c *GenAIClient) Ping(ctx context.Context, model string) error {
	if _, err := c.client.Models.Get(ctx, model, nil); err != nil {
		return fmt.Errorf("model %s unavailable: %w", model, err)
	}
	return nil
}

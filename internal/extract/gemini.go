package extract

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModel calls the Gemini API through the genai client
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel builds the process-wide client once from validated configuration
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient failed: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

// GenerateJSON issues a single GenerateContent call constrained to schema
func (g *GeminiModel) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("client.Models.GenerateContent failed: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

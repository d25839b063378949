// Package extract turns pasted email text into sender-grouped summaries using
// a generative model constrained by a JSON response schema.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/felo/email-organizer/internal/organizer"
	"google.golang.org/genai"
)

// Model is the generative-model boundary. GenerateJSON sends one request and
// returns the raw response text.
type Model interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// ErrEmptyResponse is returned when the model answers with no text
var ErrEmptyResponse = errors.New("model returned an empty response")

// Extractor is stateless: no retries, no caching, one model call per Extract.
type Extractor struct {
	model Model
}

// New creates an Extractor. A nil model means the credential was not configured.
func New(model Model) *Extractor {
	return &Extractor{model: model}
}

// Extract sends text to the model and validates the answer
func (e *Extractor) Extract(ctx context.Context, text string) (organizer.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, organizer.ValidationError(organizer.MsgEmptyInput)
	}
	if e == nil || e.model == nil {
		return nil, organizer.ConfigurationError("The AI service is not configured. Set GEMINI_API_KEY and restart.")
	}

	raw, err := e.model.GenerateJSON(ctx, BuildPrompt(text), ResponseSchema())
	if err != nil {
		log.Printf("Extraction request failed: %v", err)
		return nil, organizer.ExtractionFailure(fmt.Errorf("generate content: %w", err))
	}
	if strings.TrimSpace(raw) == "" {
		log.Printf("Extraction failed: %v", ErrEmptyResponse)
		return nil, organizer.ExtractionFailure(ErrEmptyResponse)
	}

	result, err := DecodeResult(raw)
	if err != nil {
		log.Printf("Extraction response rejected: %v", err)
		return nil, organizer.ExtractionFailure(err)
	}
	return result, nil
}

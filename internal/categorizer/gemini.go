package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"mlaurent/scanledger/internal/logging"
)

// GeminiClient calls the Gemini API to suggest a category for a transaction.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	log    logging.Logger
}

// NewGeminiClient creates a client for the given model. Temperature is
// pinned to zero so identical documents categorize identically.
func NewGeminiClient(ctx context.Context, apiKey, modelName string, log logging.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	if log == nil {
		log = logging.GetLogger()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &GeminiClient{client: client, model: model, log: log}, nil
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Suggest sends the prompt and decodes the JSON suggestion from the reply.
func (c *GeminiClient) Suggest(ctx context.Context, prompt string) (Suggestion, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Suggestion{}, fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Suggestion{}, fmt.Errorf("no response from Gemini API")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return parseSuggestion(responseText)
}

// parseSuggestion decodes the model reply, tolerating markdown code fences
// around the JSON document.
func parseSuggestion(raw string) (Suggestion, error) {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(cleaned), &s); err != nil {
		return Suggestion{}, fmt.Errorf("unparseable model response: %w", err)
	}
	return s, nil
}

package tryon

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// NewGeminiModel creates the SDK client and the configured image model.
// The caller closes the returned client.
func NewGeminiModel(ctx context.Context, apiKey, modelName string, opts ...option.ClientOption) (*genai.Client, *genai.GenerativeModel, error) {
	if apiKey == "" {
		return nil, nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetCandidateCount(1)
	return client, model, nil
}

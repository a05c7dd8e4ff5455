package services

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

var geminiClient *genai.Client

// InitGemini creates the shared Gemini client. Called once at boot; an empty
// key falls back to the SDK's environment lookup.
func InitGemini(apiKey string) error {
	config := &genai.ClientConfig{}
	if apiKey != "" {
		config.APIKey = apiKey
	}
	client, err := genai.NewClient(context.Background(), config)
	if err != nil {
		return err
	}
	geminiClient = client
	return nil
}

// GenerateModelText runs a single non-streaming generation.
func GenerateModelText(ctx context.Context, modelName, prompt string) (string, error) {
	if geminiClient == nil {
		return "", errors.New("gemini client not initialized")
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	resp, err := geminiClient.Models.GenerateContent(ctx, modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return cleanModelOutput(resp.Text()), nil
}

// StreamModelText streams a generation, invoking onChunk for every partial
// text fragment in arrival order, and returns the accumulated text.
func StreamModelText(ctx context.Context, modelName, prompt string, onChunk func(string)) (string, error) {
	if geminiClient == nil {
		return "", errors.New("gemini client not initialized")
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	var b strings.Builder
	for chunk, err := range geminiClient.Models.GenerateContentStream(ctx, modelName, genai.Text(prompt), nil) {
		if err != nil {
			return b.String(), err
		}
		text := chunk.Text()
		if text == "" {
			continue
		}
		b.WriteString(text)
		if onChunk != nil {
			onChunk(text)
		}
	}
	return b.String(), nil
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"taskseek/internal/logging"
	"taskseek/internal/memory"

	"google.golang.org/genai"
)

// =============================================================================
// GOOGLE GENAI GENERATION PROVIDER
// =============================================================================

// GeminiClient implements Provider using Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed provider.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Model returns the configured model identifier.
func (c *GeminiClient) Model() string {
	return c.model
}

// Respond generates a reply to the conversation history.
// The leading system entry becomes the system instruction; the remaining
// turns map onto user/model content.
func (c *GeminiClient) Respond(ctx context.Context, history []memory.Entry) (string, string, error) {
	timer := logging.StartTimer(logging.CategoryAPI, "GeminiClient.Respond")
	defer timer.Stop()

	var system string
	contents := make([]*genai.Content, 0, len(history))
	for _, e := range history {
		switch e.Role {
		case memory.RoleSystem:
			system = e.Content
		case memory.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(e.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(e.Content, genai.RoleUser))
		}
	}

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		logging.APIError("Gemini generation failed: %v", err)
		return "", "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", "", fmt.Errorf("no completion returned")
	}

	answer, reasoning := splitReasoning(text)
	return answer, reasoning, nil
}

// Embed generates embeddings for a batch of texts with the classification
// task type. Used by the local zero-shot classifier.
func (c *GeminiClient) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := c.client.Models.EmbedContent(ctx, model, contents, &genai.EmbedContentConfig{
		TaskType: "CLASSIFICATION",
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/jonathan/outreach-agent/internal/config"
	"google.golang.org/api/option"
)

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateContent sends a single free-text prompt and returns the model's text reply
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates the client for cfg.Provider. A missing API key fails
// here, before any network call is attempted.
func NewClient(ctx context.Context, cfg *Config, apiKey string) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, cfg, apiKey)
	default:
		return nil, &config.ConfigError{Field: "provider", Message: fmt.Sprintf("unsupported LLM provider %q", cfg.Provider)}
	}
}

// GeminiClient implements Client for Google Gemini. One GenerativeModel is
// kept per model name and reused across calls.
type GeminiClient struct {
	client *genai.Client
	config *Config

	mu     sync.Mutex
	models map[string]*genai.GenerativeModel
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, cfg *Config, apiKey string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &config.ConfigError{Field: "api_key", Message: "API key is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, newProviderError("failed to create Gemini client", err)
	}

	return &GeminiClient{
		client: client,
		config: cfg,
		models: make(map[string]*genai.GenerativeModel),
	}, nil
}

// GenerateContent sends prompt to the model for tier and returns the joined
// text parts. Failures come back as *ProviderError; nothing is retried here.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", &config.ConfigError{Field: "model", Message: fmt.Sprintf("no model configured for tier %s", tier)}
	}

	resp, err := c.model(modelName).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", newProviderError("failed to generate content", err)
	}

	return extractTextFromResponse(resp)
}

func (c *GeminiClient) model(name string) *genai.GenerativeModel {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.models[name]; ok {
		return m
	}
	m := c.client.GenerativeModel(name)
	m.SetTemperature(c.config.Temperature)
	if c.config.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(c.config.MaxOutputTokens)
	}
	c.models[name] = m
	return m
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse joins the text parts of the first candidate.
// A blocked prompt or a reply without text is a KindEmptyResponse error.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", &ProviderError{Kind: KindEmptyResponse, Message: "nil response"}
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return "", &ProviderError{Kind: KindInvalidRequest, Message: "prompt blocked: " + fb.BlockReason.String()}
	}
	if len(resp.Candidates) == 0 {
		return "", &ProviderError{Kind: KindEmptyResponse, Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		msg := "no content in response"
		if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
			msg += " (finish reason " + candidate.FinishReason.String() + ")"
		}
		return "", &ProviderError{Kind: KindEmptyResponse, Message: msg}
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", &ProviderError{Kind: KindEmptyResponse, Message: "no text parts in response"}
	}
	return sb.String(), nil
}

package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/jonathan/outreach-agent/internal/config"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is the Gemini embedding model
const DefaultGeminiModel = "text-embedding-004"

// geminiDimensions is the output size of text-embedding-004
const geminiDimensions = 768

// maxBatch is the per-request limit of BatchEmbedContents
const maxBatch = 100

// Gemini embeds text with a Gemini embedding model
type Gemini struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

// NewGemini creates a Gemini embedder. A missing API key is a ConfigError.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &config.ConfigError{Field: "api_key", Message: "API key is required for Gemini embeddings"}
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding client: %w", err)
	}

	em := client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeSemanticSimilarity

	return &Gemini{client: client, model: em}, nil
}

// Dimensions implements Embedder
func (g *Gemini) Dimensions() int {
	return geminiDimensions
}

// Embed implements Embedder
func (g *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))

		batch := g.model.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}

		resp, err := g.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch [%d:%d]: %w", start, end, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", end-start, len(resp.Embeddings))
		}
		for _, e := range resp.Embeddings {
			out = append(out, e.Values)
		}
	}
	return out, nil
}

// Close releases the underlying client
func (g *Gemini) Close() error {
	return g.client.Close()
}

package ollama

import (
	"context"
)

// EmbeddingProvider adapts the client to the pipeline's Embedder
// capability with a fixed embedding model.
type EmbeddingProvider struct {
	client *Client
	model  string
}

func NewEmbeddingProvider(client *Client, model string) *EmbeddingProvider {
	return &EmbeddingProvider{
		client: client,
		model:  model,
	}
}

func (p *EmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.client.GetEmbedding(ctx, p.model, text)
}

// GenerationProvider adapts the client to the pipeline's LLMProvider
// capability. The model is chosen per call by the answer generator's
// fallback chain.
type GenerationProvider struct {
	client *Client
}

func NewGenerationProvider(client *Client) *GenerationProvider {
	return &GenerationProvider{
		client: client,
	}
}

func (p *GenerationProvider) Generate(ctx context.Context, model, system, prompt string) (string, error) {
	return p.client.Generate(ctx, model, system, prompt, map[string]interface{}{
		"temperature": 0.2,
		"top_p":       0.9,
	})
}

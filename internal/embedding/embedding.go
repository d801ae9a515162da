// Package embedding generates vector embeddings for article text through an
// OpenAI-compatible embeddings endpoint.
package embedding

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jonesrussell/graphweave/internal/config"
	"github.com/jonesrussell/graphweave/internal/logger"
)

// ErrEmptyInput is returned when Embed is called with no texts.
var ErrEmptyInput = errors.New("no texts to embed")

// embeddingClient is the slice of the OpenAI API the generator uses.
type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Generator produces embedding vectors for batches of text.
type Generator struct {
	client embeddingClient
	model  openai.EmbeddingModel
	log    logger.Interface
}

// New creates a generator from configuration.
func New(cfg config.OpenAIConfig, log logger.Interface) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(cfg.EmbeddingModel),
		log:    log,
	}
}

// NewWithClient creates a generator with an injected client. Used in tests.
func NewWithClient(client embeddingClient, model string, log logger.Interface) *Generator {
	return &Generator{client: client, model: openai.EmbeddingModel(model), log: log}
}

// Embed returns one vector per input text, in input order. Calling with an
// empty slice is a programming error, reported as ErrEmptyInput.
func (g *Generator) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	resp, err := g.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: g.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}

	g.log.Debug("embeddings generated", "count", len(vectors))

	return vectors, nil
}

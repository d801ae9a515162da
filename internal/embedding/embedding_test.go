package embedding

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/graphweave/internal/logger"
)

type fakeEmbeddingClient struct {
	response openai.EmbeddingResponse
	err      error
}

func (f *fakeEmbeddingClient) CreateEmbeddings(
	_ context.Context,
	_ openai.EmbeddingRequestConverter,
) (openai.EmbeddingResponse, error) {
	return f.response, f.err
}

func TestEmbed_Success(t *testing.T) {
	client := &fakeEmbeddingClient{
		response: openai.EmbeddingResponse{
			Data: []openai.Embedding{
				{Embedding: []float32{0.1, 0.2}},
				{Embedding: []float32{0.3, 0.4}},
			},
		},
	}
	g := NewWithClient(client, "text-embedding-3-small", logger.NewNoOp())

	vectors, err := g.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestEmbed_EmptyInput(t *testing.T) {
	g := NewWithClient(&fakeEmbeddingClient{}, "text-embedding-3-small", logger.NewNoOp())

	_, err := g.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEmbed_RequestFailure(t *testing.T) {
	client := &fakeEmbeddingClient{err: errors.New("service unavailable")}
	g := NewWithClient(client, "text-embedding-3-small", logger.NewNoOp())

	_, err := g.Embed(context.Background(), []string{"text"})
	assert.ErrorContains(t, err, "embedding request failed")
}

func TestEmbed_CountMismatch(t *testing.T) {
	client := &fakeEmbeddingClient{
		response: openai.EmbeddingResponse{
			Data: []openai.Embedding{{Embedding: []float32{0.1}}},
		},
	}
	g := NewWithClient(client, "text-embedding-3-small", logger.NewNoOp())

	_, err := g.Embed(context.Background(), []string{"first", "second"})
	assert.ErrorContains(t, err, "embedding count mismatch")
}

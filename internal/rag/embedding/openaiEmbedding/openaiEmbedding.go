package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/customHttpClient"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/embedding"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	openAi openai.Client
	model  string
}

// GetOpenAIEmbeddingClient returns the singleton embedder for the
// configured OpenAI model. Returns nil when no API key is available.
func GetOpenAIEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		if apikey == "" {
			logger.Error("OPENAI_API_KEY is not configured")
			return
		}
		c := openai.NewClient(
			option.WithAPIKey(apikey),
			option.WithHTTPClient(customHttpClient.PooledClient()),
		)
		embeddingClient = &client{openAi: c, model: modelName}
		logger.Info("OpenAI embedding client created", "model", modelName)
	})

	if embeddingClient == nil {
		return nil
	}
	return &client{openAi: embeddingClient.openAi, model: embeddingClient.model}
}

func (c *client) ModelId() string { return c.model }

func (c *client) Dimension() int { return int(config.EmbeddingOutputDimensionality) }

func (c *client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, &ragerrors.EmbeddingError{ModelID: c.model, Err: errors.New("empty batch")}
	}
	for _, t := range texts {
		if t == "" {
			return nil, &ragerrors.EmbeddingError{ModelID: c.model, Err: errors.New("empty text in batch")}
		}
	}

	resp, err := c.openAi.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(config.EmbeddingOutputDimensionality)),
	})
	if err != nil {
		logger.Error("Error getting embeddings from OpenAI", "error", err)
		return nil, &ragerrors.EmbeddingError{ModelID: c.model, Err: err}
	}
	if len(resp.Data) != len(texts) {
		return nil, &ragerrors.EmbeddingError{
			ModelID: c.model,
			Err:     fmt.Errorf("asked for %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	// The API reports an index per embedding; place by index instead of
	// trusting response order.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		if d.Index < 0 || int(d.Index) >= len(vectors) {
			return nil, &ragerrors.EmbeddingError{
				ModelID: c.model,
				Err:     fmt.Errorf("embedding index %d out of range", d.Index),
			}
		}
		vectors[d.Index] = v
	}
	return vectors, nil
}

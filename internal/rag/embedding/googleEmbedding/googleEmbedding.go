package googleEmbedding

import (
	"context"
	"errors"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/embedding"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi *genai.Client
	model string
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Google embedding client", "error", err)
	}
	if c != nil {
		embeddingClient = &client{
			genAi: c,
			model: modelName,
		}
		logger.Info("Google embedding client created", "model", modelName)
		go closeClient(ctx, embeddingClient)
	}
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing Google embedding client")
	embeddingClient.genAi = nil
	embeddingClient.model = ""
}

func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, modelName, apikey)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return &client{genAi: embeddingClient.genAi, model: embeddingClient.model}
}

func (c *client) ModelId() string { return c.model }

func (c *client) Dimension() int { return int(dimension) }

func (c *client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if query == "" {
		return nil, &ragerrors.EmbeddingError{ModelID: c.model, Err: errors.New("empty query text")}
	}

	result, err := c.doCall(ctx, genai.Text(query))
	if err != nil {
		return nil, &ragerrors.EmbeddingError{ModelID: c.model, Err: err}
	}
	return result.Embeddings[0].Values, nil
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

	res, err := c.doCall(ctx, getContent(texts))
	if err != nil || res == nil {
		if doRetry(err, logger) {
			logger.Debug("Rate limited, retrying batch in 5 seconds")
			time.Sleep(5 * time.Second)
			res, err = c.doCall(ctx, getContent(texts))
		}
		if err != nil {
			logger.Error("Error getting embeddings from Google", "error", err)
			return nil, &ragerrors.EmbeddingError{ModelID: c.model, Err: err}
		}
	}

	vectors := make([][]float32, 0, len(res.Embeddings))
	for _, r := range res.Embeddings {
		vectors = append(vectors, r.Values)
	}
	if len(vectors) != len(texts) {
		return nil, &ragerrors.EmbeddingError{
			ModelID: c.model,
			Err:     errors.New("result count does not match input count"),
		}
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content,
		&genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_DOCUMENT"})
}

package qdrantDB

import (
	"context"
	"encoding/json"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
)

// GetCachedResult looks the query vector up in the cache collection and
// returns the stored retrieval result when a semantically near-identical
// query was answered before.
func (db *ClientHolder) GetCachedResult(ctx context.Context, queryVector []float32) (docModel.RetrievalResult, bool, error) {
	var empty docModel.RetrievalResult

	searchResult, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: config.QdrantCacheCollection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil || len(searchResult) == 0 {
		return empty, false, err
	}

	if searchResult[0].Score < config.CacheSimilarityCutoff {
		return empty, false, nil
	}

	raw := searchResult[0].Payload["result"].GetStringValue()
	var result docModel.RetrievalResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		logger.Error("Cache payload is unreadable, ignoring hit", "error", err)
		return empty, false, nil
	}

	logger.Debug("Semantic cache hit", "score", searchResult[0].Score)
	return result, true, nil
}

func (db *ClientHolder) SaveResult(ctx context.Context, id string, queryVector []float32, result docModel.RetrievalResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}

	_, err = db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: config.QdrantCacheCollection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(queryVector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"result":    string(raw),
					"timestamp": time.Now().Unix(),
				}),
			},
		},
	})
	if err != nil {
		logger.Error("Saving result to cache failed", "error", err)
	}
	return err
}

package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once

type ClientHolder struct {
	QObj *qdrant.Client
}

// GetQdrantClient returns the mirror client, or nil when QDRANT_HOST is
// unset or the dial fails. The mirror is optional infrastructure; the
// local snapshot serves queries either way.
func GetQdrantClient(ctx context.Context) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: qdrantInstance,
	}
}

func newClient() *qdrant.Client {
	host := os.Getenv("QDRANT_HOST")
	if host == "" {
		logger.Info("QDRANT_HOST not set, mirror disabled")
		return nil
	}
	port, err := strconv.Atoi(os.Getenv("QDRANT_PORT"))
	if err != nil {
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate qdrant client", "error", err)
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
}

// EnsureCollections creates the chunk and query-cache collections for the
// given vector dimension when missing.
func (db *ClientHolder) EnsureCollections(ctx context.Context, dimension int) error {
	if err := createCollection(ctx, db.QObj, config.QdrantCollection, uint64(dimension)); err != nil {
		return err
	}
	return createCollection(ctx, db.QObj, config.QdrantCacheCollection, uint64(dimension))
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, chunks []docModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunkPointId(chunk.Id)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":       chunk.Text,
				"page_num":      chunk.Page,
				"source_doc_id": chunk.DocId,
				"doc_name":      chunk.DocName,
				"chunk_order":   chunk.Seq,
				"chunk_id":      chunk.Id,
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: config.QdrantCollection,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// chunkPointId shapes the 32-hex chunk id into the UUID form qdrant wants
// for point ids. Deterministic, so re-upserts replace rather than grow.
func chunkPointId(chunkId string) string {
	if len(chunkId) != 32 {
		return chunkId
	}
	return chunkId[0:8] + "-" + chunkId[8:12] + "-" + chunkId[12:16] + "-" + chunkId[16:20] + "-" + chunkId[20:32]
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension uint64) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

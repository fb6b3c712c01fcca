package vectorDB

import (
	"context"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
)

// Mirror receives a copy of every built batch so an external vector
// database can serve the same corpus. The local snapshot stays the source
// of truth; the mirror is best-effort infrastructure.
type Mirror interface {
	EnsureCollections(ctx context.Context, dimension int) error
	UpsertBatch(ctx context.Context, chunks []docModel.Chunk, vectors [][]float32) error
}

// QueryCache answers repeated (semantically near-identical) queries
// without re-searching the index.
type QueryCache interface {
	GetCachedResult(ctx context.Context, queryVector []float32) (docModel.RetrievalResult, bool, error)
	SaveResult(ctx context.Context, id string, queryVector []float32, result docModel.RetrievalResult) error
}

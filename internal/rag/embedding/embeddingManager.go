package embedding

import "context"

// Embedder is the capability contract for an embedding backend. Model and
// dimension are fixed per instance and recorded as index metadata at build
// time, so queries can be checked for compatibility later.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelId() string
}

package retriever

import (
	"context"
	"fmt"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/embedding"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/index"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

// Retriever answers similarity queries against the currently published
// index snapshot. It is read-only with respect to the index and safe for
// concurrent use.
type Retriever struct {
	embedder  embedding.Embedder
	snapshots *index.Holder
	defaultK  int
	logger    *logger_i.Logger
}

func New(embedder embedding.Embedder, snapshots *index.Holder, defaultK int) *Retriever {
	if defaultK < 1 {
		defaultK = config.DefaultTopK
	}
	return &Retriever{
		embedder:  embedder,
		snapshots: snapshots,
		defaultK:  defaultK,
		logger:    logger_i.NewLogger("Retriever"),
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query docModel.Query) (docModel.RetrievalResult, error) {
	if err := r.validate(query); err != nil {
		return docModel.RetrievalResult{}, err
	}
	if _, err := r.snapshots.Current(); err != nil {
		return docModel.RetrievalResult{}, err
	}

	vector, err := r.embedder.EmbedQuery(ctx, query.Text)
	if err != nil {
		return docModel.RetrievalResult{}, err
	}
	return r.RetrieveWithVector(ctx, vector, query)
}

// RetrieveWithVector searches with an already-embedded query vector. Lets
// the caller reuse the vector it computed for the semantic cache lookup.
func (r *Retriever) RetrieveWithVector(ctx context.Context, vector []float32, query docModel.Query) (docModel.RetrievalResult, error) {
	if err := r.validate(query); err != nil {
		return docModel.RetrievalResult{}, err
	}

	ix, err := r.snapshots.Current()
	if err != nil {
		return docModel.RetrievalResult{}, err
	}

	k := query.K
	if k == 0 {
		k = r.defaultK
	}
	if k > config.MaxTopK {
		k = config.MaxTopK
	}

	hits, err := ix.Search(vector, k, query.Filters)
	if err != nil {
		return docModel.RetrievalResult{}, err
	}

	r.logger.Debug("Search done", "k", k, "hits", len(hits), "filters", query.Filters)
	return assemble(query.Text, ix.ModelId(), hits), nil
}

func (r *Retriever) validate(query docModel.Query) error {
	if query.K < 0 || (query.K == 0 && r.defaultK < 1) {
		return fmt.Errorf("%w: got %d", ragerrors.ErrInvalidK, query.K)
	}
	return nil
}

// EmbedQuery exposes the query vector for the semantic cache lookup, which
// happens before the snapshot search.
func (r *Retriever) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return r.embedder.EmbedQuery(ctx, text)
}

func (r *Retriever) Ready() bool { return r.snapshots.Ready() }

func assemble(queryText, modelId string, hits []index.Hit) docModel.RetrievalResult {
	results := make([]docModel.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		results = append(results, docModel.RetrievedChunk{
			ChunkId: hit.Chunk.Id,
			Text:    hit.Chunk.Text,
			Source:  hit.Chunk.DocName,
			Page:    hit.Chunk.Page,
			Score:   hit.Score,
		})
	}
	return docModel.RetrievalResult{
		Query:   queryText,
		ModelId: modelId,
		Results: results,
	}
}

package index

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
)

// Metric is the similarity function an index is built with. It is fixed for
// the life of the index; changing it means a full rebuild.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, MetricDot:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("unknown similarity metric %q", s)
	}
}

// Hit is one search result: the stored chunk plus its similarity score.
type Hit struct {
	Chunk docModel.Chunk
	Score float32
}

// Index is an exact brute-force nearest-neighbor index over the corpus
// vectors. Entries are append-only; the build model is full-replace, so a
// duplicate chunk id on Add is a bug upstream and gets rejected rather
// than upserted. Not safe for concurrent mutation - the builder serializes
// writes and publishes the finished index through a Holder, after which it
// is read-only.
type Index struct {
	modelId   string
	dimension int
	metric    Metric
	builtAt   time.Time

	chunks  []docModel.Chunk
	vectors [][]float32
	norms   []float32
	byId    map[string]int
}

func New(modelId string, dimension int, metric Metric) (*Index, error) {
	if modelId == "" {
		return nil, fmt.Errorf("index requires an embedding model id")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dimension)
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	return &Index{
		modelId:   modelId,
		dimension: dimension,
		metric:    metric,
		builtAt:   time.Now(),
		byId:      make(map[string]int),
	}, nil
}

func (ix *Index) ModelId() string    { return ix.modelId }
func (ix *Index) Dimension() int     { return ix.dimension }
func (ix *Index) Metric() Metric     { return ix.metric }
func (ix *Index) BuiltAt() time.Time { return ix.builtAt }
func (ix *Index) Len() int           { return len(ix.chunks) }

// Add inserts chunks paired with their vectors. A vector whose dimension
// differs from the index's declared dimension is a configuration error
// (wrong embedding model) and fails the whole call.
func (ix *Index) Add(chunks []docModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != ix.dimension {
			return fmt.Errorf("vector %d has dimension %d, index is built for %d (model %s)",
				i, len(v), ix.dimension, ix.modelId)
		}
		if _, dup := ix.byId[chunks[i].Id]; dup {
			return fmt.Errorf("duplicate chunk id %s", chunks[i].Id)
		}
	}

	for i, chunk := range chunks {
		ix.byId[chunk.Id] = len(ix.chunks)
		ix.chunks = append(ix.chunks, chunk)
		ix.vectors = append(ix.vectors, vectors[i])
		ix.norms = append(ix.norms, norm(vectors[i]))
	}
	return nil
}

// Search returns the k entries most similar to vector under the index
// metric, ordered by non-increasing score with ties broken by insertion
// order. Fewer than k entries degrade to fewer results; zero entries are a
// distinguishable ErrEmptyIndex.
func (ix *Index) Search(vector []float32, k int, filters map[string]string) ([]Hit, error) {
	if len(ix.chunks) == 0 {
		return nil, ragerrors.ErrEmptyIndex
	}
	if k < 1 {
		return nil, ragerrors.ErrInvalidK
	}
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, index is built for %d (model %s)",
			len(vector), ix.dimension, ix.modelId)
	}

	queryNorm := norm(vector)

	type scored struct {
		pos   int
		score float32
	}
	var candidates []scored
	for pos := range ix.chunks {
		if !matchesFilters(ix.chunks[pos], filters) {
			continue
		}
		score := dot(ix.vectors[pos], vector)
		if ix.metric == MetricCosine {
			denom := ix.norms[pos] * queryNorm
			if denom == 0 {
				score = 0
			} else {
				score /= denom
			}
		}
		candidates = append(candidates, scored{pos: pos, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].pos < candidates[j].pos
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	hits := make([]Hit, 0, k)
	for _, c := range candidates[:k] {
		hits = append(hits, Hit{Chunk: ix.chunks[c.pos], Score: c.score})
	}
	return hits, nil
}

// matchesFilters checks the chunk against metadata filters. Supported keys
// mirror what the retrieval API exposes: source (document name) and page.
func matchesFilters(chunk docModel.Chunk, filters map[string]string) bool {
	for key, want := range filters {
		switch key {
		case "source":
			if chunk.DocName != want {
				return false
			}
		case "page":
			if strconv.Itoa(chunk.Page) != want {
				return false
			}
		case "doc_id":
			if chunk.DocId != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

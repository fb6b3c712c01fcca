package retriever

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/chunker"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/index"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
)

const testDim = 64

// bagEmbedder hashes words into a fixed-size histogram. Deterministic, no
// network, and similar texts get similar vectors, which is all these tests
// need from an embedding model.
type bagEmbedder struct {
	failQuery error
}

func (e *bagEmbedder) ModelId() string { return "test-bag-of-words" }
func (e *bagEmbedder) Dimension() int  { return testDim }

func (e *bagEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if e.failQuery != nil {
		return nil, e.failQuery
	}
	return embedText(text), nil
}

func (e *bagEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

func embedText(text string) []float32 {
	v := make([]float32, testDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%testDim]++
	}
	return v
}

func corpusDocs() []docModel.Document {
	// three documents, two pages each, with disjoint vocabulary per doc
	words := func(theme string, n int) string {
		var b strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "%s%d ", theme, i%37)
		}
		return b.String()
	}
	return []docModel.Document{
		{
			Id: "docs/bonds.txt", Name: "bonds.txt",
			Pages: []docModel.Page{
				{Number: 1, Content: words("bond", 400)},
				{Number: 2, Content: words("yield", 400)},
			},
		},
		{
			Id: "docs/equity.txt", Name: "equity.txt",
			Pages: []docModel.Page{
				{Number: 1, Content: words("stock", 400)},
				{Number: 2, Content: words("dividend", 200) + "the cobalt flamingo clause applies here " + words("dividend", 200)},
			},
		},
		{
			Id: "docs/cash.txt", Name: "cash.txt",
			Pages: []docModel.Page{
				{Number: 1, Content: words("deposit", 400)},
				{Number: 2, Content: words("interest", 400)},
			},
		},
	}
}

func buildCorpusIndex(t *testing.T) *index.Holder {
	t.Helper()
	split, err := chunker.New(500, 50)
	if err != nil {
		t.Fatalf("chunker.New: %v", err)
	}
	emb := &bagEmbedder{}

	ix, err := index.New(emb.ModelId(), emb.Dimension(), index.MetricCosine)
	if err != nil {
		t.Fatalf("index.New: %v", err)
	}
	for _, doc := range corpusDocs() {
		chunks := split.ChunkDocument(doc)
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors, err := emb.EmbedBatch(context.Background(), texts)
		if err != nil {
			t.Fatalf("EmbedBatch: %v", err)
		}
		if err := ix.Add(chunks, vectors); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	holder := index.NewHolder()
	holder.Swap(ix)
	return holder
}

func TestRetrieve_NotReady(t *testing.T) {
	r := New(&bagEmbedder{}, index.NewHolder(), 4)

	_, err := r.Retrieve(context.Background(), docModel.Query{Text: "anything"})
	if !errors.Is(err, ragerrors.ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
	if r.Ready() {
		t.Error("Ready() must be false with no snapshot")
	}
}

func TestRetrieve_InvalidK(t *testing.T) {
	r := New(&bagEmbedder{}, buildCorpusIndex(t), 4)

	_, err := r.Retrieve(context.Background(), docModel.Query{Text: "anything", K: -1})
	if !errors.Is(err, ragerrors.ErrInvalidK) {
		t.Errorf("expected ErrInvalidK, got %v", err)
	}
}

func TestRetrieve_EmbeddingFailurePropagates(t *testing.T) {
	emb := &bagEmbedder{failQuery: &ragerrors.EmbeddingError{ModelID: "test-bag-of-words", Err: errors.New("quota")}}
	r := New(emb, buildCorpusIndex(t), 4)

	_, err := r.Retrieve(context.Background(), docModel.Query{Text: "anything"})
	var embErr *ragerrors.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Errorf("expected EmbeddingError, got %v", err)
	}
}

func TestRetrieve_VerbatimPhraseTopHit(t *testing.T) {
	r := New(&bagEmbedder{}, buildCorpusIndex(t), 4)

	result, err := r.Retrieve(context.Background(), docModel.Query{Text: "the cobalt flamingo clause applies here"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(result.Results) != 4 {
		t.Fatalf("expected default k=4 results, got %d", len(result.Results))
	}

	top := result.Results[0]
	if top.Source != "equity.txt" || top.Page != 2 {
		t.Errorf("top hit should come from equity.txt page 2, got %s page %d", top.Source, top.Page)
	}
	if !strings.Contains(top.Text, "cobalt flamingo clause") {
		t.Error("top hit does not contain the queried phrase")
	}
	for i := 1; i < len(result.Results); i++ {
		if result.Results[i].Score > result.Results[i-1].Score {
			t.Errorf("results not sorted by score at %d", i)
		}
	}
	if result.ModelId != "test-bag-of-words" {
		t.Errorf("result should carry the index model id, got %s", result.ModelId)
	}
}

func TestRetrieve_DefaultAndCappedK(t *testing.T) {
	holder := buildCorpusIndex(t)
	r := New(&bagEmbedder{}, holder, 2)

	result, err := r.Retrieve(context.Background(), docModel.Query{Text: "bond0 bond1"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(result.Results) != 2 {
		t.Errorf("k=0 should fall back to the default, got %d results", len(result.Results))
	}

	result, err = r.Retrieve(context.Background(), docModel.Query{Text: "bond0 bond1", K: config.MaxTopK + 100})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(result.Results) > config.MaxTopK {
		t.Errorf("k must be capped at %d, got %d results", config.MaxTopK, len(result.Results))
	}
}

func TestRetrieve_SourceFilter(t *testing.T) {
	r := New(&bagEmbedder{}, buildCorpusIndex(t), 4)

	result, err := r.Retrieve(context.Background(), docModel.Query{
		Text:    "deposit0 deposit1 deposit2",
		Filters: map[string]string{"source": "cash.txt"},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(result.Results) == 0 {
		t.Fatal("expected filtered results")
	}
	for _, hit := range result.Results {
		if hit.Source != "cash.txt" {
			t.Errorf("filter leaked a hit from %s", hit.Source)
		}
	}
}

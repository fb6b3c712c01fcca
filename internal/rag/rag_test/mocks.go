package rag_test

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
)

const testDim = 48

// MockQueryCache implements vectorDB.QueryCache
type MockQueryCache struct {
	OnGetCachedResult func(ctx context.Context, queryVector []float32) (docModel.RetrievalResult, bool, error)
	OnSaveResult      func(ctx context.Context, id string, queryVector []float32, result docModel.RetrievalResult) error
	SaveCalls         chan docModel.RetrievalResult
}

func (m *MockQueryCache) GetCachedResult(ctx context.Context, v []float32) (docModel.RetrievalResult, bool, error) {
	if m.OnGetCachedResult != nil {
		return m.OnGetCachedResult(ctx, v)
	}
	return docModel.RetrievalResult{}, false, nil
}

func (m *MockQueryCache) SaveResult(ctx context.Context, id string, v []float32, result docModel.RetrievalResult) error {
	if m.SaveCalls != nil {
		m.SaveCalls <- result
	}
	if m.OnSaveResult != nil {
		return m.OnSaveResult(ctx, id, v, result)
	}
	return nil
}

// MockEmbedder hashes words into a histogram so similar text embeds close
// together without any network call.
type MockEmbedder struct {
	OnEmbedQuery func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbedder) ModelId() string { return "mock-embedding-model" }
func (m *MockEmbedder) Dimension() int  { return testDim }

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return embedWords(text), nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedWords(t)
	}
	return out, nil
}

func embedWords(text string) []float32 {
	v := make([]float32, testDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%testDim]++
	}
	return v
}

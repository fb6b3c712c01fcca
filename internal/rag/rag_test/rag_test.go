package rag_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/jobModel"
	"github.com/AlenaSalanevich/financeadviser/internal/rag"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/builder"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/index"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/loader"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/retriever"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o640); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
}

func newTestService(t *testing.T, cache *MockQueryCache, sourceDir string) (rag.Service, *index.Holder) {
	t.Helper()
	emb := &MockEmbedder{}
	holder := index.NewHolder()
	r := retriever.New(emb, holder, 4)
	b := builder.New(loader.NewFileLoader(), emb, nil)
	cfg := builder.Config{ChunkSize: 200, ChunkOverlap: 40, BatchSize: 8, Concurrency: 2}

	if cache != nil {
		return rag.NewService(r, b, holder, cache, cfg), holder
	}
	return rag.NewService(r, b, holder, nil, cfg), holder
}

func rebuildFromDir(t *testing.T, s rag.Service, dir string) jobModel.Job {
	t.Helper()
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	job := jobModel.Job{
		Id:         "job-1",
		JobType:    jobModel.JobTypeRebuild,
		JobPayload: jobModel.JobPayload{SourceDir: dir},
	}
	return s.RebuildIndex(ctx, job)
}

func TestRebuildIndex_PublishesSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "fees.txt", strings.Repeat("management fee schedule details ", 40))
	writeSource(t, dir, "funds.txt", strings.Repeat("mutual fund allocation notes ", 40))

	s, holder := newTestService(t, nil, dir)
	if s.Ready() {
		t.Fatal("service must not be ready before the first rebuild")
	}

	result := rebuildFromDir(t, s, dir)
	if result.Status != jobModel.JobStatusComplete {
		t.Fatalf("rebuild failed: status=%s error=%+v", result.Status, result.Error)
	}
	if result.CurrentStep != jobModel.Complete {
		t.Errorf("CurrentStep = %s", result.CurrentStep)
	}
	if result.JobPayload.Summary == nil {
		t.Fatal("completed rebuild must carry a build summary")
	}
	if len(result.JobPayload.Summary.Succeeded) != 2 {
		t.Errorf("expected 2 succeeded sources, got %d", len(result.JobPayload.Summary.Succeeded))
	}
	if !holder.Ready() || !s.Ready() {
		t.Error("snapshot was not published")
	}
}

func TestRebuildIndex_EmptySourceDir(t *testing.T) {
	dir := t.TempDir()
	s, _ := newTestService(t, nil, dir)

	result := rebuildFromDir(t, s, dir)
	if result.Status != jobModel.JobStatusError {
		t.Fatalf("rebuild of an empty dir must fail, got %s", result.Status)
	}
	if result.Error.Code != http.StatusInternalServerError {
		t.Errorf("Error.Code = %d", result.Error.Code)
	}
}

func TestRebuildIndex_MissingSourceDir(t *testing.T) {
	s, _ := newTestService(t, nil, "")

	result := rebuildFromDir(t, s, filepath.Join(t.TempDir(), "nope"))
	if result.Status != jobModel.JobStatusError {
		t.Fatalf("rebuild of a missing dir must fail, got %s", result.Status)
	}
}

func TestSearch_Scenarios(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "fees.txt", strings.Repeat("management fee schedule details ", 40))
	writeSource(t, dir, "funds.txt", strings.Repeat("mutual fund allocation notes ", 40)+
		"the silver heron provision is unique "+strings.Repeat("mutual fund allocation notes ", 40))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	t.Run("NotReady_BeforeFirstBuild", func(t *testing.T) {
		s, _ := newTestService(t, nil, dir)
		_, err := s.Search(ctx, docModel.Query{Text: "anything"})
		if !errors.Is(err, ragerrors.ErrNotReady) {
			t.Errorf("expected ErrNotReady, got %v", err)
		}
	})

	t.Run("Success_IndexSearch", func(t *testing.T) {
		s, _ := newTestService(t, nil, dir)
		if job := rebuildFromDir(t, s, dir); job.Status != jobModel.JobStatusComplete {
			t.Fatalf("rebuild: %+v", job.Error)
		}

		result, err := s.Search(ctx, docModel.Query{Text: "the silver heron provision is unique"})
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(result.Results) == 0 {
			t.Fatal("no results")
		}
		if result.Results[0].Source != "funds.txt" {
			t.Errorf("top hit from %s, want funds.txt", result.Results[0].Source)
		}
	})

	t.Run("NotReady_CacheHitDoesNotMaskIt", func(t *testing.T) {
		// the persistent cache can hold entries from a previous run while
		// the local snapshot is gone
		cache := &MockQueryCache{
			OnGetCachedResult: func(ctx context.Context, v []float32) (docModel.RetrievalResult, bool, error) {
				return docModel.RetrievalResult{
					Results: []docModel.RetrievedChunk{{ChunkId: "stale", Text: "stale text"}},
				}, true, nil
			},
		}
		s, _ := newTestService(t, cache, dir)

		result, err := s.Search(ctx, docModel.Query{Text: "management fee schedule"})
		if !errors.Is(err, ragerrors.ErrNotReady) {
			t.Errorf("expected ErrNotReady, got %v", err)
		}
		if len(result.Results) != 0 {
			t.Errorf("stale cached result was served: %+v", result.Results)
		}
	})

	t.Run("Success_Cache_Hit", func(t *testing.T) {
		cached := docModel.RetrievalResult{Query: "q", ModelId: "mock-embedding-model",
			Results: []docModel.RetrievedChunk{{ChunkId: "cached", Text: "cached text"}}}
		cache := &MockQueryCache{
			OnGetCachedResult: func(ctx context.Context, v []float32) (docModel.RetrievalResult, bool, error) {
				return cached, true, nil
			},
		}
		s, _ := newTestService(t, cache, dir)
		if job := rebuildFromDir(t, s, dir); job.Status != jobModel.JobStatusComplete {
			t.Fatalf("rebuild: %+v", job.Error)
		}

		result, err := s.Search(ctx, docModel.Query{Text: "management fee schedule"})
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(result.Results) != 1 || result.Results[0].ChunkId != "cached" {
			t.Error("cache hit was not returned as-is")
		}
	})

	t.Run("Cache_Miss_SavesResultInBackground", func(t *testing.T) {
		cache := &MockQueryCache{SaveCalls: make(chan docModel.RetrievalResult, 1)}
		s, _ := newTestService(t, cache, dir)
		if job := rebuildFromDir(t, s, dir); job.Status != jobModel.JobStatusComplete {
			t.Fatalf("rebuild: %+v", job.Error)
		}

		if _, err := s.Search(ctx, docModel.Query{Text: "management fee schedule"}); err != nil {
			t.Fatalf("Search: %v", err)
		}

		select {
		case saved := <-cache.SaveCalls:
			if len(saved.Results) == 0 {
				t.Error("empty result was cached")
			}
		case <-time.After(2 * time.Second):
			t.Error("background cache save never happened")
		}
	})

	t.Run("Failure_Embedding", func(t *testing.T) {
		s, _ := newTestService(t, nil, dir)
		if job := rebuildFromDir(t, s, dir); job.Status != jobModel.JobStatusComplete {
			t.Fatalf("rebuild: %+v", job.Error)
		}

		// separate service sharing nothing: swap in a failing embedder
		failing := &MockEmbedder{OnEmbedQuery: func(ctx context.Context, text string) ([]float32, error) {
			return nil, &ragerrors.EmbeddingError{ModelID: "mock-embedding-model", Err: errors.New("api limit")}
		}}
		holder := index.NewHolder()
		r := retriever.New(failing, holder, 4)
		b := builder.New(loader.NewFileLoader(), failing, nil)
		failingService := rag.NewService(r, b, holder, nil, builder.Config{ChunkSize: 200, ChunkOverlap: 40})

		_, err := failingService.Search(ctx, docModel.Query{Text: "whatever"})
		var embErr *ragerrors.EmbeddingError
		if !errors.As(err, &embErr) {
			t.Errorf("expected EmbeddingError, got %v", err)
		}
	})
}

package rag

import (
	"context"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/adapter/utils"
	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/jobModel"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/builder"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/index"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/loader"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/retriever"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/vectorDB"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

/*
ARCHITECTURE NOTE: OPAQUE INTERFACE PATTERN
---------------------------------------------------------

1. Service (Interface):
  - This is the PUBLIC contract.
  - Handlers and workers only see the behavior, never the wiring.

2. service (Private Struct):
  - This is the PRIVATE implementation.
  - It holds the state (retriever, builder, snapshot holder, cache).
  - Lowercase keeps external packages away from the internals.

3. Pointer Receiver (*service):
  - Methods on (*service) implicitly satisfy the Service interface.

4. Dependency Injection (NewService):
  - The constructor links the private struct to the public interface,
    so tests can swap in fakes without touching the callers.
*/

// Service is everything the HTTP handlers and the worker pool need from
// the retrieval pipeline.
type Service interface {
	Search(ctx context.Context, query docModel.Query) (docModel.RetrievalResult, error)
	RebuildIndex(ctx context.Context, job jobModel.Job) jobModel.Job
	Ready() bool
}

type service struct {
	retriever  *retriever.Retriever
	builder    *builder.Builder
	snapshots  *index.Holder
	queryCache vectorDB.QueryCache
	buildCfg   builder.Config
	logger     *logger_i.Logger
}

// NewService constructor. queryCache may be nil, which disables the
// semantic cache entirely.
func NewService(r *retriever.Retriever, b *builder.Builder, snapshots *index.Holder, cache vectorDB.QueryCache, buildCfg builder.Config) Service {
	return &service{
		retriever:  r,
		builder:    b,
		snapshots:  snapshots,
		queryCache: cache,
		buildCfg:   buildCfg,
		logger:     logger_i.NewLogger("RAG Service :"),
	}
}

func (s *service) Ready() bool {
	return s.retriever.Ready()
}

func (s *service) Search(ctx context.Context, query docModel.Query) (docModel.RetrievalResult, error) {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	searchContext, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// No published snapshot means no search, even on a cache hit. The
	// persistent cache can outlive the local index file, and serving from
	// it here would mask the unavailable index.
	if _, err := s.snapshots.Current(); err != nil {
		return docModel.RetrievalResult{}, err
	}

	// Embedding
	queryVector, err := s.executeEmbeddingStep(searchContext, inMethodLogger, query.Text)
	if err != nil {
		return docModel.RetrievalResult{}, err
	}

	// Cache Check
	cached, found := s.executeCacheCheckStep(searchContext, inMethodLogger, queryVector)
	if found {
		return cached, nil
	}

	// Index Search
	result, err := s.executeIndexSearchStep(searchContext, inMethodLogger, queryVector, query)
	if err != nil {
		return docModel.RetrievalResult{}, err
	}

	// Background Cache Save
	if s.queryCache != nil {
		go func() {
			if err := s.queryCache.SaveResult(context.WithoutCancel(ctx), utils.GetNewUUID(), queryVector, result); err != nil {
				s.logger.Error("Failed to save to cache", "error", err)
			}
		}()
	}

	return result, nil
}

func (s *service) RebuildIndex(ctx context.Context, job jobModel.Job) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", job.Id)
	job.CurrentStep = jobModel.BuildInit

	sourceDir := job.JobPayload.SourceDir
	if sourceDir == "" {
		sourceDir = config.SourceDir()
	}

	job = logOutput(job, jobModel.LoadCall, inMethodLogger)
	sources, err := loader.DiscoverSources(sourceDir)
	if err != nil {
		return s.jobError(job, err, "SOURCE_DISCOVERY_FAILURE", false)
	}
	if len(sources) == 0 {
		return s.jobError(job, errNoSources(sourceDir), "SOURCE_DISCOVERY_FAILURE", false)
	}

	job = logOutput(job, jobModel.IndexWrite, inMethodLogger)
	ix, summary, err := s.builder.Build(ctx, sources, s.buildCfg)
	job.JobPayload.Summary = &summary
	if err != nil {
		return s.jobError(job, err, "INDEX_BUILD_FAILURE", true)
	}

	job = logOutput(job, jobModel.PublishCall, inMethodLogger)
	s.snapshots.Swap(ix)
	inMethodLogger.Info("Index published", "chunks", summary.ChunkCount, "failedSources", len(summary.Failed))

	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	return job
}

package rag

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/jobModel"
	"github.com/AlenaSalanevich/financeadviser/internal/metrics"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("RebuildIndex", "Current Status", job.CurrentStep)
	return job
}

func errNoSources(dir string) error {
	return fmt.Errorf("no loadable documents under %q", dir)
}

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "error", err)

	job.Error = jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Message: "Internal Server Error",
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, text string) ([]float32, error) {
	log.Debug("Search", "Current Step", "query embedding")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("query_embedding", time.Since(start)) }()

	return s.retriever.EmbedQuery(ctx, text)
}

func (s *service) executeCacheCheckStep(ctx context.Context, log *logger_i.Logger, queryVector []float32) (docModel.RetrievalResult, bool) {
	if s.queryCache == nil {
		return docModel.RetrievalResult{}, false
	}
	log.Debug("Search", "Current Step", "cache lookup")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	result, found, _ := s.queryCache.GetCachedResult(ctx, queryVector)
	return result, found
}

func (s *service) executeIndexSearchStep(ctx context.Context, log *logger_i.Logger, queryVector []float32, query docModel.Query) (docModel.RetrievalResult, error) {
	log.Debug("Search", "Current Step", "index search")

	start := time.Now()
	defer func() { metrics.CaptureRetrievalMetrics("index_search", time.Since(start)) }()

	return s.retriever.RetrieveWithVector(ctx, queryVector, query)
}

package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/internal/metrics"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/chunker"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/embedding"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/index"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/loader"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/vectorDB"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

// Config are the per-build knobs. Zero values fall back to the compiled-in
// defaults.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Concurrency  int
	Metric       index.Metric
	IndexPath    string
	//Strict aborts the whole run on the first failed source instead of
	//skip-and-continue.
	Strict bool
}

func (cfg *Config) applyDefaults() {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = config.ChunkSize
	}
	if cfg.ChunkOverlap == 0 && cfg.ChunkSize == config.ChunkSize {
		cfg.ChunkOverlap = config.ChunkOverlap
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = config.EmbeddingBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = config.BuildConcurrency
	}
	if cfg.Metric == "" {
		cfg.Metric = index.MetricCosine
	}
}

// Builder drives the batch pipeline Loader -> Chunker -> Embedder ->
// Index.Add -> Persist. Sources are processed concurrently; writes into
// the index are serialized in the collector so a partially built index is
// never observable.
type Builder struct {
	loader   loader.DocumentLoader
	embedder embedding.Embedder
	mirror   vectorDB.Mirror //optional, may be nil
	logger   *logger_i.Logger
}

func New(docLoader loader.DocumentLoader, embedder embedding.Embedder, mirror vectorDB.Mirror) *Builder {
	return &Builder{
		loader:   docLoader,
		embedder: embedder,
		mirror:   mirror,
		logger:   logger_i.NewLogger("IndexBuilder"),
	}
}

type sourceResult struct {
	report  docModel.SourceReport
	chunks  []docModel.Chunk
	vectors [][]float32
	err     error
}

// Build processes all sources and returns the finished index plus a
// summary. Per-source failures land in the summary; the error return is
// reserved for strict-mode aborts, cancellation and persistence failures.
// The previous snapshot on disk is only replaced once the new one is
// complete.
func (b *Builder) Build(ctx context.Context, sources []string, cfg Config) (*index.Index, docModel.BuildSummary, error) {
	cfg.applyDefaults()
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("index_build", time.Since(start)) }()

	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, docModel.BuildSummary{}, err
	}

	ix, err := index.New(b.embedder.ModelId(), b.embedder.Dimension(), cfg.Metric)
	if err != nil {
		return nil, docModel.BuildSummary{}, err
	}

	summary := docModel.BuildSummary{
		StartedAt: start,
		ModelId:   ix.ModelId(),
		Dimension: ix.Dimension(),
		Metric:    string(ix.Metric()),
		IndexPath: cfg.IndexPath,
		Strict:    cfg.Strict,
	}

	if b.mirror != nil {
		if err := b.mirror.EnsureCollections(ctx, ix.Dimension()); err != nil {
			b.logger.Error("Mirror collection setup failed, disabling mirror for this build", "error", err)
			b.mirror = nil
		}
	}

	buildCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sourceChan := make(chan string)
	resultChan := make(chan sourceResult)

	var workers sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for src := range sourceChan {
				resultChan <- b.processSource(buildCtx, src, splitter, cfg.BatchSize)
			}
		}()
	}

	go func() {
		defer close(sourceChan)
		for _, src := range sources {
			select {
			case sourceChan <- src:
			case <-buildCtx.Done():
				return
			}
		}
	}()

	go func() {
		workers.Wait()
		close(resultChan)
	}()

	//collector: the only writer into the index
	var abort error
	for res := range resultChan {
		if res.err != nil {
			if buildCtx.Err() != nil && abort == nil {
				abort = buildCtx.Err()
				continue
			}
			// In-flight sources cut short by the abort are cancellation
			// fallout, not source failures.
			if abort != nil && buildCtx.Err() != nil && errors.Is(res.err, buildCtx.Err()) {
				continue
			}
			res.report.Error = res.err.Error()
			summary.Failed = append(summary.Failed, res.report)
			b.logger.Error("Source failed", "source", res.report.Source, "error", res.err)
			if cfg.Strict && abort == nil {
				abort = fmt.Errorf("strict ingest: %w", res.err)
				cancel()
			}
			continue
		}
		if abort != nil {
			continue
		}
		if err := ix.Add(res.chunks, res.vectors); err != nil {
			abort = fmt.Errorf("adding %s to index: %w", res.report.Source, err)
			cancel()
			continue
		}
		summary.Succeeded = append(summary.Succeeded, res.report)
		summary.ChunkCount += res.report.Chunks

		if b.mirror != nil {
			if err := b.mirror.UpsertBatch(ctx, res.chunks, res.vectors); err != nil {
				b.logger.Error("Mirror upsert failed", "source", res.report.Source, "error", err)
			}
		}
	}

	if abort == nil && ctx.Err() != nil {
		abort = ctx.Err()
	}
	if abort != nil {
		return nil, summary, abort
	}

	if cfg.IndexPath != "" {
		if err := ix.Persist(cfg.IndexPath); err != nil {
			return nil, summary, fmt.Errorf("persisting index: %w", err)
		}
	}

	summary.FinishedAt = time.Now()
	metrics.SetIndexEntryCount(ix.Len())
	b.logger.Info("Build finished",
		"sources", len(sources),
		"succeeded", len(summary.Succeeded),
		"failed", len(summary.Failed),
		"chunks", summary.ChunkCount,
		"took", summary.FinishedAt.Sub(summary.StartedAt))
	return ix, summary, nil
}

// processSource runs the per-source part of the pipeline. Cancellation is
// checked between batches so an interrupted build stops at source/batch
// granularity without corrupting anything already persisted.
func (b *Builder) processSource(ctx context.Context, src string, splitter *chunker.Chunker, batchSize int) sourceResult {
	res := sourceResult{report: docModel.SourceReport{Source: src}}

	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	doc, err := b.loader.Load(src)
	if err != nil {
		res.err = err
		return res
	}
	res.report.Pages = len(doc.Pages)

	chunks := splitter.ChunkDocument(doc)
	res.report.Chunks = len(chunks)
	if len(chunks) == 0 {
		return res
	}

	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += batchSize {
		if err := ctx.Err(); err != nil {
			res.err = err
			return res
		}
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.Text)
		}

		embedStart := time.Now()
		batchVectors, err := b.embedder.EmbedBatch(ctx, texts)
		metrics.CaptureExecutionMetrics("embedding_batch", time.Since(embedStart))
		if err != nil {
			res.err = fmt.Errorf("embedding batch %d-%d: %w", i, end, err)
			return res
		}
		vectors = append(vectors, batchVectors...)
	}

	res.chunks = chunks
	res.vectors = vectors
	return res
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/builder"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/embedding"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/embedding/googleEmbedding"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/embedding/openaiEmbedding"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/index"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/loader"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/vectorDB"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/vectorDB/qdrantDB"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

var (
	sourceDir  string
	indexPath  string
	metricName string
	strict     bool
	withMirror bool
)

// offline index build, same pipeline the API rebuild jobs run
func main() {
	logger_i.Init()
	logger := logger_i.NewLogger("indexer")

	flag.StringVar(&sourceDir, "source-dir", config.SourceDir(), "directory holding the source documents")
	flag.StringVar(&indexPath, "index-path", config.IndexPath(), "where to write the index snapshot")
	flag.StringVar(&metricName, "metric", string(index.MetricCosine), "similarity metric: cosine or dot")
	flag.BoolVar(&strict, "strict", config.StrictIngest(), "abort on the first unreadable source")
	flag.BoolVar(&withMirror, "mirror", false, "also upsert chunks into qdrant")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metric, err := index.ParseMetric(metricName)
	if err != nil {
		logger.Error("Bad metric flag", "error", err)
		os.Exit(2)
	}

	embeddingService := initEmbedder(ctx)
	if embeddingService == nil {
		logger.Error("Embedding service failed to initialize")
		os.Exit(1)
	}

	var mirror vectorDB.Mirror
	if withMirror {
		qc := qdrantDB.GetQdrantClient(ctx)
		if qc == nil {
			logger.Error("Qdrant requested but unreachable")
			os.Exit(1)
		}
		mirror = qc
	}

	sources, err := loader.DiscoverSources(sourceDir)
	if err != nil {
		logger.Error("Could not scan source directory", "dir", sourceDir, "error", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		logger.Error("No loadable documents found", "dir", sourceDir)
		os.Exit(1)
	}
	logger.Info("Discovered sources", "count", len(sources), "dir", sourceDir)

	indexBuilder := builder.New(loader.NewFileLoader(), embeddingService, mirror)
	cfg := builder.Config{
		ChunkSize:    config.ChunkSize,
		ChunkOverlap: config.ChunkOverlap,
		BatchSize:    config.EmbeddingBatchSize,
		Concurrency:  config.BuildConcurrency,
		Metric:       metric,
		IndexPath:    indexPath,
		Strict:       strict,
	}

	ix, summary, err := indexBuilder.Build(ctx, sources, cfg)
	printSummary(len(summary.Succeeded), len(summary.Failed), summary.ChunkCount, indexPath)
	if err != nil {
		logger.Error("Build failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Build complete", "entries", ix.Len(), "snapshot", indexPath)
}

func initEmbedder(ctx context.Context) embedding.Embedder {
	if config.EmbeddingProvider() == config.EmbeddingProviderOpenAI {
		return openaiEmbedding.GetOpenAIEmbeddingClient(ctx, config.OpenAIEmbeddingModel, config.OpenAIAPIKey())
	}
	return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, config.GeminiAPIKey())
}

func printSummary(succeeded, failed, chunks int, path string) {
	fmt.Printf("sources ok: %d failed: %d\n", succeeded, failed)
	fmt.Printf("chunks indexed: %d\n", chunks)
	fmt.Printf("snapshot: %s\n", path)
}

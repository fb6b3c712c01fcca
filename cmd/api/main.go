// @title           Finance Adviser Retrieval API
// @version         1.0
// @description     Retrieval queries over a local vector index with background rebuild jobs
// @termsOfService  http://swagger.io/terms/

// @contact.name    me lol
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/data/store"
	jobmodel "github.com/AlenaSalanevich/financeadviser/internal/domain/jobModel"
	"github.com/AlenaSalanevich/financeadviser/internal/handlers"
	"github.com/AlenaSalanevich/financeadviser/internal/job"
	"github.com/AlenaSalanevich/financeadviser/internal/metrics"
	"github.com/AlenaSalanevich/financeadviser/internal/rag"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/builder"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/embedding"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/embedding/googleEmbedding"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/embedding/openaiEmbedding"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/index"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/loader"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/retriever"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/vectorDB"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/vectorDB/qdrantDB"
	"github.com/AlenaSalanevich/financeadviser/internal/server"
	"github.com/AlenaSalanevich/financeadviser/internal/worker"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and stores
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          store.GetRedisJobStore(serviceContext),
		BuildReportStore:  store.GetRedisBuildReportStore(serviceContext),
	}
	logger.Info("Starting job service")

	if serviceConfig.JobStore == nil || serviceConfig.BuildReportStore == nil {
		logger.Error("Redis stores are offline")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.BuildReportStore = store.InitInMemoryBuildReportStore()
	}
	service := job.InitJobService(serviceConfig)

	embeddingService := initEmbedder(serviceContext, logger)
	if embeddingService == nil {
		logger.Error("Embedding service failed to initialize. Shutting down.")
		return
	}

	//qdrant mirror and semantic cache are optional, the local snapshot
	//serves queries on its own
	var mirror vectorDB.Mirror
	var queryCache vectorDB.QueryCache
	if qc := qdrantDB.GetQdrantClient(serviceContext); qc != nil {
		mirror = qc
		queryCache = qc
	} else {
		logger.Warn("Qdrant is offline, running without mirror and semantic cache")
	}

	snapshots := index.NewHolder()
	if ix := loadSnapshot(logger, embeddingService); ix != nil {
		snapshots.Swap(ix)
		metrics.SetIndexEntryCount(ix.Len())
	}

	ragRetriever := retriever.New(embeddingService, snapshots, config.DefaultTopK)
	indexBuilder := builder.New(loader.NewFileLoader(), embeddingService, mirror)
	buildCfg := builder.Config{
		ChunkSize:    config.ChunkSize,
		ChunkOverlap: config.ChunkOverlap,
		BatchSize:    config.EmbeddingBatchSize,
		Concurrency:  config.BuildConcurrency,
		IndexPath:    config.IndexPath(),
		Strict:       config.StrictIngest(),
	}

	ragService := rag.NewService(ragRetriever, indexBuilder, snapshots, queryCache, buildCfg)

	handlers.InitJobHandler(service, ragService)

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func initEmbedder(ctx context.Context, logger *logger_i.Logger) embedding.Embedder {
	provider := config.EmbeddingProvider()
	logger.Info("Initializing embedding provider", "provider", provider)
	if provider == config.EmbeddingProviderOpenAI {
		return openaiEmbedding.GetOpenAIEmbeddingClient(ctx, config.OpenAIEmbeddingModel, config.OpenAIAPIKey())
	}
	return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, config.GeminiAPIKey())
}

// loadSnapshot restores the persisted index if one exists. A missing file
// just means the service starts unready until the first rebuild; a
// corrupt or mismatched file is fatal so a stale index never serves.
func loadSnapshot(logger *logger_i.Logger, embedder embedding.Embedder) *index.Index {
	path := config.IndexPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn("No index snapshot found, waiting for first rebuild", "path", path)
		return nil
	}

	ix, err := index.Load(path, embedder.ModelId(), embedder.Dimension())
	if err != nil {
		var corrupt *ragerrors.IndexCorruptError
		if errors.As(err, &corrupt) {
			logger.Error("Index snapshot is unusable, delete it or rebuild", "path", path, "reason", corrupt.Reason)
			os.Exit(1)
		}
		logger.Error("Could not load index snapshot", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("Loaded index snapshot", "path", path, "entries", ix.Len())
	return ix
}

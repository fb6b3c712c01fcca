package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	NoAuthBypass = true //local dev only - flip before deploying
	AuthToken    = ""

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//retrieval
	DefaultTopK           = 4
	MaxTopK               = 50
	CacheSimilarityCutoff = 0.97

	//chunking - mirrors the splitter settings the corpus was originally indexed with
	ChunkSize    = 1000
	ChunkOverlap = 200

	//embeddings
	EmbeddingProviderGoogle  = "google"
	EmbeddingProviderOpenAI  = "openai"
	DefaultEmbeddingProvider = EmbeddingProviderOpenAI

	OpenAIEmbeddingModel = "text-embedding-3-small"
	GoogleEmbeddingModel = "gemini-embedding-001"

	EmbeddingOutputDimensionality int32 = 1536
	EmbeddingBatchSize                  = 100

	//index build
	IndexFileName       = "index.snapshot"
	DefaultSourceDir    = "data"
	BuildConcurrency    = 4
	StrictIngestDefault = false

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	RebuildJobTimeout               = 10 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//qdrant mirror (optional - only dialed when QDRANT_HOST is set)
	QdrantCollection      = "financeadviser-chunks"
	QdrantCacheCollection = "financeadviser-query-cache"
	QdrantGrpcPort        = 6334
	QdrantUseTLS          = false
	QdrantPoolSize        = 1

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DB we can use
	RedisJobStore         = 0
	RedisBuildReportStore = 1

	//redis timeouts
	RedisJobStoreTTL = 24 * time.Hour

	//how many build reports /builds returns
	BuildReportHistoryLimit = 20
)

// env lookups with the compiled-in value as fallback

func EmbeddingProvider() string {
	if v := os.Getenv("EMBEDDING_PROVIDER"); v != "" {
		return v
	}
	return DefaultEmbeddingProvider
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func SourceDir() string {
	if v := os.Getenv("SOURCE_DIR"); v != "" {
		return v
	}
	return DefaultSourceDir
}

func IndexPath() string {
	if v := os.Getenv("INDEX_PATH"); v != "" {
		return v
	}
	return IndexFileName
}

func StrictIngest() bool {
	switch os.Getenv("STRICT_INGEST") {
	case "1", "true", "TRUE":
		return true
	case "0", "false", "FALSE":
		return false
	}
	return StrictIngestDefault
}

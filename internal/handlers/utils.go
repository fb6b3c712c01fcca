package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/AlenaSalanevich/financeadviser/internal/adapter"
	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/jobModel"
	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response: %v", err)
	}
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func validateContext(ctx context.Context) bool {
	logRH.With("traceId:", ctx.Value(config.TRACE_ID_KEY).(string))
	if ctx.Err() != nil {
		logRH.Warn("context error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true

	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// searchErrorStatus maps retrieval failures to HTTP codes.
func searchErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ragerrors.ErrNotReady):
		return http.StatusServiceUnavailable, "Index is not ready"
	case errors.Is(err, ragerrors.ErrInvalidK):
		return http.StatusBadRequest, "top_k must be a positive integer"
	case errors.Is(err, ragerrors.ErrEmptyIndex):
		return http.StatusConflict, "Index has no entries"
	}
	var embErr *ragerrors.EmbeddingError
	if errors.As(err, &embErr) {
		return http.StatusBadGateway, "Embedding provider failure"
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

func getTargetDirectory() (string, string) {
	targetDir := config.SourceDir()
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", "Storage Error"
	}
	return targetDir, ""
}

package store

import (
	"context"
	"sync"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
)

type InMemoryBuildReportStore struct {
	mu      sync.RWMutex
	reports []docModel.BuildSummary
}

func InitInMemoryBuildReportStore() *InMemoryBuildReportStore {
	return &InMemoryBuildReportStore{}
}

func (store *InMemoryBuildReportStore) SaveReport(ctx context.Context, summary docModel.BuildSummary) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.reports = append(store.reports, summary)
	if len(store.reports) > config.BuildReportHistoryLimit {
		store.reports = store.reports[len(store.reports)-config.BuildReportHistoryLimit:]
	}
	return nil
}

func (store *InMemoryBuildReportStore) RecentReports(ctx context.Context, limit int) ([]docModel.BuildSummary, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	if limit < 1 || limit > len(store.reports) {
		limit = len(store.reports)
	}
	out := make([]docModel.BuildSummary, 0, limit)
	for i := len(store.reports) - 1; i >= len(store.reports)-limit; i-- {
		out = append(out, store.reports[i])
	}
	return out, nil
}

package store

import (
	"context"
	"encoding/json"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
	"github.com/AlenaSalanevich/financeadviser/internal/data/redisStore"
	"github.com/AlenaSalanevich/financeadviser/internal/domain/docModel"
	"github.com/AlenaSalanevich/financeadviser/pkg/logger_i"
)

const buildReportKey = "build:reports"

type RedisBuildReportStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisBuildReportStore(ctx context.Context) *RedisBuildReportStore {
	backing := redisStore.GetRedisStore(ctx, config.RedisBuildReportStore)
	if backing == nil {
		return nil
	}
	return &RedisBuildReportStore{
		store:  backing,
		logger: logger_i.NewLogger("BuildReportStore"),
	}
}

func (s *RedisBuildReportStore) SaveReport(ctx context.Context, summary docModel.BuildSummary) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	data, err := json.Marshal(summary)
	if err != nil {
		log.Error("Error marshalling build summary", "error", err)
		return err
	}
	if err = s.store.ListPush(ctx, buildReportKey, data); err != nil {
		log.Error("Error saving build report", "error", err)
		return err
	}
	// history is bounded, oldest reports fall off
	if err = s.store.ListTrimTail(ctx, buildReportKey, config.BuildReportHistoryLimit); err != nil {
		log.Error("Error trimming build report history", "error", err)
		return err
	}
	log.Debug("Saved build report")
	return nil
}

func (s *RedisBuildReportStore) RecentReports(ctx context.Context, limit int) ([]docModel.BuildSummary, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	if limit < 1 || limit > config.BuildReportHistoryLimit {
		limit = config.BuildReportHistoryLimit
	}
	raw, err := s.store.ListGetLastN(ctx, buildReportKey, int64(limit))
	if err != nil {
		log.Error("Error getting build reports", "error", err)
		return nil, err
	}

	// newest first
	reports := make([]docModel.BuildSummary, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var summary docModel.BuildSummary
		if err := json.Unmarshal([]byte(raw[i]), &summary); err != nil {
			log.Error("Skipping unreadable build report", "error", err)
			continue
		}
		reports = append(reports, summary)
	}
	return reports, nil
}

func TestBuildReportStore(store *redisStore.Store) *RedisBuildReportStore {
	return &RedisBuildReportStore{
		store:  store,
		logger: logger_i.NewLogger("test reports"),
	}
}

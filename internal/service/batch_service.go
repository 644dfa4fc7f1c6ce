package service

import (
	"context"
	"errors"
	"strings"

	"training_progress_backend/internal/model"
	"training_progress_backend/internal/progression"
	"training_progress_backend/internal/repository"
	"training_progress_backend/internal/util"
	"training_progress_backend/pkg/logger"
	"training_progress_backend/pkg/monitoring"
	"training_progress_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BatchService struct {
	BatchRepo *repository.BatchRepository
	CadetRepo *repository.CadetProgressRepository
	Cache     StatsCache
	DB        *gorm.DB
}

func NewBatchService(batchRepo *repository.BatchRepository, cadetRepo *repository.CadetProgressRepository, cache StatsCache, db *gorm.DB) *BatchService {
	return &BatchService{
		BatchRepo: batchRepo,
		CadetRepo: cadetRepo,
		Cache:     cache,
		DB:        db,
	}
}

type CreateBatchRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

func (s *BatchService) CreateBatch(ctx context.Context, req CreateBatchRequest) (*model.Batch, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, util.ErrBatchCodeBlank
	}

	repo := s.BatchRepo.WithDB(s.DB.WithContext(ctx))
	if _, err := repo.FindByCode(code); err == nil {
		return nil, util.ErrBatchExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	batch := &model.Batch{Code: code, Name: strings.TrimSpace(req.Name)}
	if err := repo.Create(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *BatchService) ListBatches(ctx context.Context, page, limit int) ([]model.Batch, int, error) {
	return s.BatchRepo.WithDB(s.DB.WithContext(ctx)).List(page, limit)
}

func (s *BatchService) ListCadets(ctx context.Context, code string, page, limit int) ([]model.CadetProgress, int, error) {
	batch, err := s.findBatch(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	return s.CadetRepo.WithDB(s.DB.WithContext(ctx)).ListByBatch(batch.ID, page, limit)
}

// GetBatchStats 按批次编码 + 记录集版本缓存，缓存故障时直接重新计算
func (s *BatchService) GetBatchStats(ctx context.Context, code string) (*model.BatchStats, error) {
	ctx, span := tracing.StartSpan(ctx, "BatchService.GetBatchStats", attribute.String("batch.code", code))
	defer span.End()

	batch, err := s.findBatch(ctx, code)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("batch.version", int64(batch.Version)))

	if s.Cache != nil {
		cached, ok, err := s.Cache.Get(ctx, batch.Code, batch.Version)
		switch {
		case err != nil:
			monitoring.StatsCacheLookups.WithLabelValues("error").Inc()
			logger.Log.Warn("Batch stats cache read failed", zap.String("batch", code), zap.Error(err))
		case ok:
			monitoring.StatsCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			monitoring.StatsCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	records, err := s.CadetRepo.WithDB(s.DB.WithContext(ctx)).ListActiveByBatch(batch.ID)
	if err != nil {
		return nil, err
	}

	stats := progression.AggregateBatch(batch.Code, records)
	stats.Version = batch.Version

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, stats); err != nil {
			logger.Log.Warn("Batch stats cache write failed", zap.String("batch", code), zap.Error(err))
		}
	}
	return &stats, nil
}

// AllBatchStats 所有批次的统计，供报表脚本使用
func (s *BatchService) AllBatchStats(ctx context.Context) ([]model.BatchStats, error) {
	batches, err := s.BatchRepo.WithDB(s.DB.WithContext(ctx)).ListAll()
	if err != nil {
		return nil, err
	}
	out := make([]model.BatchStats, 0, len(batches))
	for _, b := range batches {
		stats, err := s.GetBatchStats(ctx, b.Code)
		if err != nil {
			return nil, err
		}
		out = append(out, *stats)
	}
	return out, nil
}

func (s *BatchService) findBatch(ctx context.Context, code string) (*model.Batch, error) {
	batch, err := s.BatchRepo.WithDB(s.DB.WithContext(ctx)).FindByCode(code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return batch, nil
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"training_progress_backend/internal/model"
	"training_progress_backend/internal/progression"
	"training_progress_backend/internal/repository"
	"training_progress_backend/internal/util"
	"training_progress_backend/pkg/logger"
	"training_progress_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProgressionService struct {
	Catalog   *progression.Catalog
	CadetRepo *repository.CadetProgressRepository
	BatchRepo *repository.BatchRepository
	EventRepo *repository.TrainingEventRepository
	Storage   *StorageService
	DB        *gorm.DB

	// 写操作串行执行，同一学员记录按到达顺序生效
	mu  sync.Mutex
	now func() time.Time
}

func NewProgressionService(
	catalog *progression.Catalog,
	cadetRepo *repository.CadetProgressRepository,
	batchRepo *repository.BatchRepository,
	eventRepo *repository.TrainingEventRepository,
	storage *StorageService,
	db *gorm.DB,
) *ProgressionService {
	return &ProgressionService{
		Catalog:   catalog,
		CadetRepo: cadetRepo,
		BatchRepo: batchRepo,
		EventRepo: eventRepo,
		Storage:   storage,
		DB:        db,
		now:       time.Now,
	}
}

type DrillRequest struct {
	BatchCode string   `json:"batchCode"`
	Accuracy  *float64 `json:"accuracy"`
}

type AssessmentRequest struct {
	BatchCode string   `json:"batchCode"`
	Score     *float64 `json:"score" binding:"required"`
}

type ViolationRequest struct {
	BatchCode string `json:"batchCode"`
	Rule      string `json:"rule" binding:"required"`
}

type ProgressView struct {
	Cadet             *model.CadetProgress           `json:"cadet"`
	BatchCode         string                         `json:"batchCode"`
	Level             model.ProgressionLevel         `json:"level"`
	CertifiedLevels   []model.Level                  `json:"certifiedLevels"`
	UnlockedFeatures  []string                       `json:"unlockedFeatures"`
	SafetyGates       []string                       `json:"safetyGates"`
	IsMaxLevel        bool                           `json:"isMaxLevel"`
	Next              *progression.NextLevelProgress `json:"next,omitempty"`
	ReadyForPromotion bool                           `json:"readyForPromotion"`
	AssessmentsTaken  int64                          `json:"assessmentsTaken"`
}

type ArchiveResult struct {
	Cadet       *model.CadetProgress `json:"cadet"`
	SnapshotURL string               `json:"snapshotUrl"`
}

type archiveSnapshot struct {
	Cadet      *model.CadetProgress  `json:"cadet"`
	BatchCode  string                `json:"batchCode"`
	Events     []model.TrainingEvent `json:"events"`
	ArchivedAt time.Time             `json:"archivedAt"`
}

// progressTx 单个事务内使用的仓储
type progressTx struct {
	cadets  *repository.CadetProgressRepository
	batches *repository.BatchRepository
	events  *repository.TrainingEventRepository
}

type mutation func(ctx context.Context, rt *progressTx, p *model.CadetProgress) ([]*model.TrainingEvent, error)

func validScore(score float64) bool {
	return !math.IsNaN(score) && score >= 0 && score <= 100
}

func (s *ProgressionService) RecordDrill(ctx context.Context, cadetNumber string, req DrillRequest) (*model.CadetProgress, error) {
	if req.Accuracy != nil && !validScore(*req.Accuracy) {
		return nil, util.ErrInvalidScore
	}
	return s.mutate(ctx, cadetNumber, req.BatchCode, true, func(ctx context.Context, rt *progressTx, p *model.CadetProgress) ([]*model.TrainingEvent, error) {
		p.DrillsCompleted++
		if req.Accuracy != nil {
			p.FoldScore(*req.Accuracy)
		}
		return []*model.TrainingEvent{{Type: model.EventDrill, Score: req.Accuracy}}, nil
	})
}

func (s *ProgressionService) RecordAssessment(ctx context.Context, cadetNumber string, req AssessmentRequest) (*model.CadetProgress, error) {
	if req.Score == nil || !validScore(*req.Score) {
		return nil, util.ErrInvalidScore
	}
	return s.mutate(ctx, cadetNumber, req.BatchCode, true, func(ctx context.Context, rt *progressTx, p *model.CadetProgress) ([]*model.TrainingEvent, error) {
		p.FoldScore(*req.Score)
		return []*model.TrainingEvent{{Type: model.EventAssessment, Score: req.Score}}, nil
	})
}

func (s *ProgressionService) RecordSafetyViolation(ctx context.Context, cadetNumber string, req ViolationRequest) (*model.CadetProgress, error) {
	return s.mutate(ctx, cadetNumber, req.BatchCode, true, func(ctx context.Context, rt *progressTx, p *model.CadetProgress) ([]*model.TrainingEvent, error) {
		p.SafetyViolations++
		return []*model.TrainingEvent{{Type: model.EventViolation, Detail: req.Rule}}, nil
	})
}

// Promote 教官批准晋级，仅当三项差距全为 0 时允许
func (s *ProgressionService) Promote(ctx context.Context, cadetNumber string, instructorID uint, certify bool) (*model.CadetProgress, error) {
	return s.mutate(ctx, cadetNumber, "", false, func(ctx context.Context, rt *progressTx, p *model.CadetProgress) ([]*model.TrainingEvent, error) {
		if progression.IsMaxLevel(*p) {
			return nil, fmt.Errorf("%w: cadet %s", progression.ErrMaxLevel, p.CadetNumber)
		}
		next, err := s.Catalog.ProgressToNextLevel(*p)
		if err != nil {
			return nil, err
		}
		if !next.Ready() {
			return nil, fmt.Errorf("%w: %d drills, %.2f accuracy, %d violations over ceiling remaining",
				util.ErrRequirementsNotMet, next.DrillsNeeded, next.AccuracyNeeded, next.SafetyGap)
		}

		from := p.CurrentLevel
		p.CurrentLevel = next.TargetLevel
		events := []*model.TrainingEvent{{
			Type:    model.EventPromotion,
			Detail:  fmt.Sprintf("%s -> %s", from, p.CurrentLevel),
			ActorID: instructorID,
		}}

		if certify {
			event, err := s.addCertification(rt, p, p.CurrentLevel, instructorID)
			if err != nil {
				return nil, err
			}
			if event != nil {
				events = append(events, event)
			}
		}
		return events, nil
	})
}

// Certify 为当前或更低等级补发认证，已认证时不做修改
func (s *ProgressionService) Certify(ctx context.Context, cadetNumber string, level model.Level, instructorID uint) (*model.CadetProgress, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %d", progression.ErrInvalidLevel, level)
	}
	return s.mutate(ctx, cadetNumber, "", false, func(ctx context.Context, rt *progressTx, p *model.CadetProgress) ([]*model.TrainingEvent, error) {
		if level > p.CurrentLevel {
			return nil, fmt.Errorf("%w: requested %s, current %s", util.ErrCertificationLevel, level, p.CurrentLevel)
		}
		event, err := s.addCertification(rt, p, level, instructorID)
		if err != nil || event == nil {
			return nil, err
		}
		return []*model.TrainingEvent{event}, nil
	})
}

func (s *ProgressionService) addCertification(rt *progressTx, p *model.CadetProgress, level model.Level, instructorID uint) (*model.TrainingEvent, error) {
	if p.HasCertification(level) {
		return nil, nil
	}
	cert := model.CadetCertification{
		CadetProgressID: p.ID,
		Level:           level,
		CertifiedBy:     instructorID,
		CertifiedAt:     s.now(),
	}
	if err := rt.cadets.AddCertification(&cert); err != nil {
		return nil, err
	}
	p.Certifications = append(p.Certifications, cert)
	return &model.TrainingEvent{
		Type:    model.EventCertification,
		Level:   level,
		ActorID: instructorID,
	}, nil
}

// Archive 归档学员记录并导出快照，归档后不再接受训练事件；事务失败时删除已上传的快照
func (s *ProgressionService) Archive(ctx context.Context, cadetNumber string, actorID uint) (*ArchiveResult, error) {
	var url, uploaded string
	p, err := s.mutate(ctx, cadetNumber, "", false, func(ctx context.Context, rt *progressTx, p *model.CadetProgress) ([]*model.TrainingEvent, error) {
		history, _, err := rt.events.ListByCadet(p.ID, 1, math.MaxInt32)
		if err != nil {
			return nil, err
		}

		now := s.now()
		p.ArchivedAt = &now
		snapshot := archiveSnapshot{Cadet: p, Events: history, ArchivedAt: now}
		if p.Batch != nil {
			snapshot.BatchCode = p.Batch.Code
		}
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return nil, err
		}

		filename := fmt.Sprintf("cadets/%s/%s.json", p.CadetNumber, model.GenerateUUID())
		url, err = s.Storage.Upload(ctx, filename, bytes.NewReader(data), int64(len(data)), util.MimeJSON)
		if err != nil {
			return nil, fmt.Errorf("export archive snapshot: %w", err)
		}
		uploaded = filename
		return []*model.TrainingEvent{{Type: model.EventArchive, Detail: url, ActorID: actorID}}, nil
	})
	if err != nil {
		if uploaded != "" {
			if delErr := s.Storage.Delete(ctx, uploaded); delErr != nil {
				logger.Log.Error("Failed to remove orphaned archive snapshot",
					zap.String("cadet", cadetNumber),
					zap.String("file", uploaded),
					zap.Error(delErr),
				)
			}
		}
		return nil, err
	}
	return &ArchiveResult{Cadet: p, SnapshotURL: url}, nil
}

func (s *ProgressionService) GetProgress(ctx context.Context, cadetNumber string) (*ProgressView, error) {
	p, err := s.find(ctx, cadetNumber)
	if err != nil {
		return nil, err
	}
	view, err := s.buildView(p)
	if err != nil {
		return nil, err
	}
	view.AssessmentsTaken, err = s.EventRepo.WithDB(s.DB.WithContext(ctx)).CountByType(p.ID, model.EventAssessment)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// buildView 存储中的等级非法时返回 ErrProgressUnavailable，由接口层展示为数据不可用
func (s *ProgressionService) buildView(p *model.CadetProgress) (*ProgressView, error) {
	level, err := s.Catalog.Get(p.CurrentLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrProgressUnavailable, err)
	}
	features, err := s.Catalog.UnlockedFeatures(p.CurrentLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrProgressUnavailable, err)
	}
	gates, err := s.Catalog.ActiveSafetyGates(p.CurrentLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrProgressUnavailable, err)
	}

	view := &ProgressView{
		Cadet:            p,
		Level:            level,
		CertifiedLevels:  p.CertifiedLevels(),
		UnlockedFeatures: features,
		SafetyGates:      gates,
		IsMaxLevel:       progression.IsMaxLevel(*p),
	}
	if p.Batch != nil {
		view.BatchCode = p.Batch.Code
	}

	// 最高等级不存在“下一级”，不调用评估器
	if !view.IsMaxLevel {
		next, err := s.Catalog.ProgressToNextLevel(*p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", util.ErrProgressUnavailable, err)
		}
		view.Next = &next
		view.ReadyForPromotion = next.Ready()
	}
	return view, nil
}

func (s *ProgressionService) ListEvents(ctx context.Context, cadetNumber string, page, limit int) ([]model.TrainingEvent, int, error) {
	p, err := s.find(ctx, cadetNumber)
	if err != nil {
		return nil, 0, err
	}
	return s.EventRepo.WithDB(s.DB.WithContext(ctx)).ListByCadet(p.ID, page, limit)
}

func (s *ProgressionService) find(ctx context.Context, cadetNumber string) (*model.CadetProgress, error) {
	p, err := s.CadetRepo.WithDB(s.DB.WithContext(ctx)).FindByCadetNumber(cadetNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCadetNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// loadOrCreate 首次训练事件时创建记录，初始为 1 级、计数为 0
func (s *ProgressionService) loadOrCreate(rt *progressTx, cadetNumber, batchCode string, create bool) (*model.CadetProgress, error) {
	p, err := rt.cadets.FindByCadetNumber(cadetNumber)
	if err == nil {
		if batchCode != "" && p.Batch != nil && p.Batch.Code != batchCode {
			return nil, fmt.Errorf("%w: %s is in %s", util.ErrBatchMismatch, cadetNumber, p.Batch.Code)
		}
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !create {
		return nil, util.ErrCadetNotFound
	}
	if batchCode == "" {
		return nil, util.ErrBatchRequired
	}

	batch, err := rt.batches.FindByCode(batchCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}

	p = &model.CadetProgress{
		CadetNumber:    cadetNumber,
		BatchID:        batch.ID,
		CurrentLevel:   model.MinLevel,
		Certifications: []model.CadetCertification{},
	}
	if err := rt.cadets.Create(p); err != nil {
		return nil, err
	}
	p.Batch = batch
	logger.Log.Info("Cadet progress record created",
		zap.String("cadet", cadetNumber),
		zap.String("batch", batchCode),
	)
	return p, nil
}

func (s *ProgressionService) mutate(ctx context.Context, cadetNumber, batchCode string, create bool, fn mutation) (*model.CadetProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		result  *model.CadetProgress
		applied []*model.TrainingEvent
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rt := &progressTx{
			cadets:  s.CadetRepo.WithDB(tx),
			batches: s.BatchRepo.WithDB(tx),
			events:  s.EventRepo.WithDB(tx),
		}

		p, err := s.loadOrCreate(rt, cadetNumber, batchCode, create)
		if err != nil {
			return err
		}
		if p.Archived() {
			return util.ErrCadetArchived
		}

		events, err := fn(ctx, rt, p)
		if err != nil {
			return err
		}
		result = p
		if len(events) == 0 {
			return nil
		}

		if err := rt.cadets.Save(p); err != nil {
			return err
		}
		for _, e := range events {
			e.CadetProgressID = p.ID
			if e.Level == 0 {
				e.Level = p.CurrentLevel
			}
			if err := rt.events.Append(e); err != nil {
				return err
			}
		}
		applied = events
		return rt.batches.BumpVersion(p.BatchID)
	})
	if err != nil {
		return nil, err
	}

	for _, e := range applied {
		monitoring.TrainingEvents.WithLabelValues(string(e.Type)).Inc()
		if e.Type == model.EventPromotion {
			monitoring.Promotions.WithLabelValues(strconv.Itoa(int(result.CurrentLevel))).Inc()
			logger.Log.Info("Cadet promoted",
				zap.String("cadet", result.CadetNumber),
				zap.String("transition", e.Detail),
				zap.Uint("instructor", e.ActorID),
			)
		}
	}
	return result, nil
}

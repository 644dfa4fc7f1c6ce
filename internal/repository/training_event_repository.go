package repository

import (
	"training_progress_backend/internal/model"

	"gorm.io/gorm"
)

type TrainingEventRepository struct {
	DB *gorm.DB
}

func NewTrainingEventRepository(db *gorm.DB) *TrainingEventRepository {
	return &TrainingEventRepository{DB: db}
}

func (r *TrainingEventRepository) WithDB(db *gorm.DB) *TrainingEventRepository {
	return &TrainingEventRepository{DB: db}
}

func (r *TrainingEventRepository) Append(event *model.TrainingEvent) error {
	return r.DB.Create(event).Error
}

// ListByCadet 按时间倒序分页
func (r *TrainingEventRepository) ListByCadet(cadetProgressID uint, page, limit int) ([]model.TrainingEvent, int, error) {
	var events []model.TrainingEvent
	var total int64
	query := r.DB.Model(&model.TrainingEvent{}).Where("cadet_progress_id = ?", cadetProgressID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("id desc").Offset(offset).Limit(limit).Find(&events).Error
	return events, int(total), err
}

func (r *TrainingEventRepository) CountByType(cadetProgressID uint, eventType model.TrainingEventType) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TrainingEvent{}).
		Where("cadet_progress_id = ? AND type = ?", cadetProgressID, eventType).
		Count(&count).Error
	return count, err
}

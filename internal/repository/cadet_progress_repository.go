package repository

import (
	"training_progress_backend/internal/model"

	"gorm.io/gorm"
)

type CadetProgressRepository struct {
	DB *gorm.DB
}

func NewCadetProgressRepository(db *gorm.DB) *CadetProgressRepository {
	return &CadetProgressRepository{DB: db}
}

// WithDB 绑定事务或携带 ctx 的会话
func (r *CadetProgressRepository) WithDB(db *gorm.DB) *CadetProgressRepository {
	return &CadetProgressRepository{DB: db}
}

func (r *CadetProgressRepository) Create(progress *model.CadetProgress) error {
	return r.DB.Create(progress).Error
}

// Save 只更新计数与等级字段，不级联关联
func (r *CadetProgressRepository) Save(progress *model.CadetProgress) error {
	return r.DB.Model(progress).
		Select("current_level", "drills_completed", "total_accuracy", "accuracy_sum", "scored_attempts", "safety_violations", "archived_at").
		Updates(progress).Error
}

func (r *CadetProgressRepository) FindByCadetNumber(cadetNumber string) (*model.CadetProgress, error) {
	var progress model.CadetProgress
	err := r.DB.
		Preload("Batch").
		Preload("Certifications", func(db *gorm.DB) *gorm.DB {
			return db.Order("level asc")
		}).
		Where("cadet_number = ?", cadetNumber).
		First(&progress).Error
	return &progress, err
}

// ListActiveByBatch 批次内未归档的记录
func (r *CadetProgressRepository) ListActiveByBatch(batchID uint) ([]model.CadetProgress, error) {
	var records []model.CadetProgress
	err := r.DB.
		Where("batch_id = ? AND archived_at IS NULL", batchID).
		Order("cadet_number asc").
		Find(&records).Error
	return records, err
}

func (r *CadetProgressRepository) ListByBatch(batchID uint, page, limit int) ([]model.CadetProgress, int, error) {
	var records []model.CadetProgress
	var total int64
	query := r.DB.Model(&model.CadetProgress{}).Where("batch_id = ?", batchID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.
		Preload("Certifications").
		Order("cadet_number asc").
		Offset(offset).Limit(limit).
		Find(&records).Error
	return records, int(total), err
}

func (r *CadetProgressRepository) AddCertification(cert *model.CadetCertification) error {
	return r.DB.Create(cert).Error
}

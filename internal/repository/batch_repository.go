package repository

import (
	"training_progress_backend/internal/model"

	"gorm.io/gorm"
)

type BatchRepository struct {
	DB *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{DB: db}
}

func (r *BatchRepository) WithDB(db *gorm.DB) *BatchRepository {
	return &BatchRepository{DB: db}
}

func (r *BatchRepository) Create(batch *model.Batch) error {
	return r.DB.Create(batch).Error
}

func (r *BatchRepository) FindByCode(code string) (*model.Batch, error) {
	var batch model.Batch
	err := r.DB.Where("code = ?", code).First(&batch).Error
	return &batch, err
}

func (r *BatchRepository) List(page, limit int) ([]model.Batch, int, error) {
	var batches []model.Batch
	var total int64
	query := r.DB.Model(&model.Batch{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("code asc").Offset(offset).Limit(limit).Find(&batches).Error
	return batches, int(total), err
}

func (r *BatchRepository) ListAll() ([]model.Batch, error) {
	var batches []model.Batch
	err := r.DB.Order("code asc").Find(&batches).Error
	return batches, err
}

// BumpVersion 成员记录变更后递增版本号，使旧统计缓存失效
func (r *BatchRepository) BumpVersion(id uint) error {
	return r.DB.Model(&model.Batch{}).
		Where("id = ?", id).
		UpdateColumn("version", gorm.Expr("version + ?", 1)).Error
}

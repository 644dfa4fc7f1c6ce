package model

// swagger:model Batch
type Batch struct {
	BaseModel

	Code    string `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name    string `gorm:"size:255;not null" json:"name"`
	Version uint64 `gorm:"default:0;not null" json:"version"` // 成员记录每次变更递增，用于统计缓存
}

func (Batch) TableName() string {
	return "batches"
}

// BatchStats 批次统计，按需计算不落库
type BatchStats struct {
	BatchCode         string        `json:"batchCode"`
	Version           uint64        `json:"version"`
	Total             int           `json:"total"`
	LevelDistribution map[Level]int `json:"levelDistribution"`
	AvgAccuracy       float64       `json:"avgAccuracy"`
}

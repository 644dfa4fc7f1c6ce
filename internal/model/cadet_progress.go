package model

import (
	"math"
	"time"
)

// accuracyScale 准确率保留 6 位小数
const accuracyScale = 1e6

// swagger:model CadetProgress
type CadetProgress struct {
	BaseModel

	CadetNumber      string     `gorm:"size:64;uniqueIndex;not null" json:"cadetNumber"`
	BatchID          uint       `gorm:"index;not null" json:"batchId"`
	CurrentLevel     Level      `gorm:"default:1;not null" json:"currentLevel"`
	DrillsCompleted  int        `gorm:"default:0;not null" json:"drillsCompleted"`
	TotalAccuracy    float64    `gorm:"default:0;not null" json:"totalAccuracy"`
	AccuracySum      float64    `gorm:"default:0;not null" json:"accuracySum"`
	ScoredAttempts   int        `gorm:"default:0;not null" json:"scoredAttempts"` // 参与准确率平均的次数
	SafetyViolations int        `gorm:"default:0;not null" json:"safetyViolations"`
	ArchivedAt       *time.Time `gorm:"index" json:"archivedAt,omitempty"`

	Batch          *Batch               `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
	Certifications []CadetCertification `gorm:"foreignKey:CadetProgressID" json:"certifications"`
}

func (CadetProgress) TableName() string {
	return "cadet_progress"
}

func (p *CadetProgress) Archived() bool {
	return p.ArchivedAt != nil
}

// FoldScore 将一次得分计入总分，TotalAccuracy 为总分 / 次数
func (p *CadetProgress) FoldScore(score float64) {
	p.AccuracySum += score
	p.ScoredAttempts++
	p.TotalAccuracy = math.Round(p.AccuracySum/float64(p.ScoredAttempts)*accuracyScale) / accuracyScale
}

func (p *CadetProgress) HasCertification(level Level) bool {
	for _, c := range p.Certifications {
		if c.Level == level {
			return true
		}
	}
	return false
}

// CertifiedLevels 已认证等级，按等级升序
func (p *CadetProgress) CertifiedLevels() []Level {
	levels := make([]Level, 0, len(p.Certifications))
	for _, l := range AllLevels {
		if p.HasCertification(l) {
			levels = append(levels, l)
		}
	}
	return levels
}

// swagger:model CadetCertification
type CadetCertification struct {
	BaseModel

	CadetProgressID uint      `gorm:"uniqueIndex:idx_cadet_cert_level;not null" json:"cadetProgressId"`
	Level           Level     `gorm:"uniqueIndex:idx_cadet_cert_level;not null" json:"level"`
	CertifiedBy     uint      `json:"certifiedBy"`
	CertifiedAt     time.Time `json:"certifiedAt"`
}

func (CadetCertification) TableName() string {
	return "cadet_certifications"
}

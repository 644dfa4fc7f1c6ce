package progression

import (
	"fmt"
	"math"

	"training_progress_backend/internal/model"
)

// NextLevelProgress 距下一等级的差距
type NextLevelProgress struct {
	TargetLevel    model.Level `json:"targetLevel"`
	Percentage     int         `json:"percentage"`
	DrillsNeeded   int         `json:"drillsNeeded"`
	AccuracyNeeded float64     `json:"accuracyNeeded"`
	SafetyGap      int         `json:"safetyGap"` // 超出下一等级违规上限的次数
}

// Ready 三项差距全为 0 是唯一的“可晋级”条件
func (n NextLevelProgress) Ready() bool {
	return n.DrillsNeeded == 0 && n.AccuracyNeeded == 0 && n.SafetyGap == 0
}

func IsMaxLevel(p model.CadetProgress) bool {
	return p.CurrentLevel.IsMax()
}

// ProgressToNextLevel 调用方需先用 IsMaxLevel 排除最高等级，否则返回 ErrMaxLevel
func (c *Catalog) ProgressToNextLevel(p model.CadetProgress) (NextLevelProgress, error) {
	if !p.CurrentLevel.Valid() {
		return NextLevelProgress{}, fmt.Errorf("%w: cadet %s at level %d", ErrInvalidLevel, p.CadetNumber, p.CurrentLevel)
	}
	if IsMaxLevel(p) {
		return NextLevelProgress{}, fmt.Errorf("%w: cadet %s", ErrMaxLevel, p.CadetNumber)
	}

	next, err := c.Get(p.CurrentLevel.Next())
	if err != nil {
		return NextLevelProgress{}, err
	}
	req := next.Requirements

	drillsNeeded := max(0, req.DrillsCompleted-p.DrillsCompleted)
	accuracyNeeded := math.Max(0, req.Accuracy-p.TotalAccuracy)
	safetyGap := max(0, p.SafetyViolations-req.SafetyViolations)

	scores := [3]float64{
		axisScore(float64(drillsNeeded), float64(req.DrillsCompleted)),
		axisScore(accuracyNeeded, req.Accuracy),
		safetyScore(p.SafetyViolations, req.SafetyViolations),
	}
	mean := (scores[0] + scores[1] + scores[2]) / 3

	progress := NextLevelProgress{
		TargetLevel:    next.Level,
		DrillsNeeded:   drillsNeeded,
		AccuracyNeeded: accuracyNeeded,
		SafetyGap:      safetyGap,
	}
	progress.Percentage = percentage(mean, progress.Ready())
	return progress, nil
}

// axisScore 已完成比例 0..1，目标为 0 时视为完成
func axisScore(needed, target float64) float64 {
	if target <= 0 || needed <= 0 {
		return 1
	}
	return math.Max(0, 1-needed/target)
}

// safetyScore 未超上限为 1，超出后随违规数递减
func safetyScore(violations, ceiling int) float64 {
	if violations <= ceiling {
		return 1
	}
	return float64(ceiling+1) / float64(violations+1)
}

// percentage 仅在 ready 时为 100，否则最多 99
func percentage(mean float64, ready bool) int {
	if ready {
		return 100
	}
	pct := int(math.Floor(mean * 100))
	if pct > 99 {
		pct = 99
	}
	return max(0, pct)
}

package progression

import "training_progress_backend/internal/model"

// AggregateBatch 批次统计，纯函数，不修改记录
func AggregateBatch(batchCode string, records []model.CadetProgress) model.BatchStats {
	stats := model.BatchStats{
		BatchCode:         batchCode,
		LevelDistribution: make(map[model.Level]int, model.LevelCount),
	}
	for _, l := range model.AllLevels {
		stats.LevelDistribution[l] = 0
	}

	var sum float64
	for _, r := range records {
		if !r.CurrentLevel.Valid() {
			continue
		}
		stats.LevelDistribution[r.CurrentLevel]++
		stats.Total++
		sum += r.TotalAccuracy
	}

	// 空批次平均准确率为 0
	if stats.Total > 0 {
		stats.AvgAccuracy = sum / float64(stats.Total)
	}
	return stats
}

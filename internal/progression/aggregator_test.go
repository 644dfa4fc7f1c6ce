package progression

import (
	"math"
	"testing"

	"training_progress_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestAggregateBatch_Empty(t *testing.T) {
	stats := AggregateBatch("B-EMPTY", nil)

	assert.Equal(t, "B-EMPTY", stats.BatchCode)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AvgAccuracy)
	assert.False(t, math.IsNaN(stats.AvgAccuracy))
	assert.Len(t, stats.LevelDistribution, 5)
	for _, l := range model.AllLevels {
		count, ok := stats.LevelDistribution[l]
		assert.True(t, ok, "level %d missing", l)
		assert.Zero(t, count)
	}
}

func TestAggregateBatch_Histogram(t *testing.T) {
	records := []model.CadetProgress{
		{CurrentLevel: model.Level1, TotalAccuracy: 60},
		{CurrentLevel: model.Level1, TotalAccuracy: 70},
		{CurrentLevel: model.Level3, TotalAccuracy: 95},
	}

	stats := AggregateBatch("B-01", records)

	assert.Equal(t, map[model.Level]int{1: 2, 2: 0, 3: 1, 4: 0, 5: 0}, stats.LevelDistribution)
	assert.Equal(t, 3, stats.Total)
	assert.InDelta(t, (60.0+70.0+95.0)/3, stats.AvgAccuracy, 1e-9)
}

func TestAggregateBatch_CountsSumToTotal(t *testing.T) {
	var records []model.CadetProgress
	for i := 0; i < 37; i++ {
		records = append(records, model.CadetProgress{
			CurrentLevel:  model.AllLevels[i%5],
			TotalAccuracy: float64(i),
		})
	}

	stats := AggregateBatch("B-02", records)

	sum := 0
	for _, c := range stats.LevelDistribution {
		sum += c
	}
	assert.Equal(t, len(records), sum)
	assert.Equal(t, len(records), stats.Total)
	assert.InDelta(t, 18.0, stats.AvgAccuracy, 1e-9)
}

func TestAggregateBatch_DoesNotMutate(t *testing.T) {
	records := []model.CadetProgress{{CadetNumber: "X", CurrentLevel: model.Level2, TotalAccuracy: 80}}
	_ = AggregateBatch("B-03", records)
	assert.Equal(t, model.CadetProgress{CadetNumber: "X", CurrentLevel: model.Level2, TotalAccuracy: 80}, records[0])
}

package progression

import (
	"testing"

	"training_progress_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cadet(level model.Level, drills int, accuracy float64, violations int) model.CadetProgress {
	return model.CadetProgress{
		CadetNumber:      "T-001",
		CurrentLevel:     level,
		DrillsCompleted:  drills,
		TotalAccuracy:    accuracy,
		SafetyViolations: violations,
	}
}

func TestProgressToNextLevel_Scenarios(t *testing.T) {
	c := DefaultCatalog()

	t.Run("below every threshold", func(t *testing.T) {
		got, err := c.ProgressToNextLevel(cadet(model.Level1, 15, 70, 5))
		require.NoError(t, err)

		assert.Equal(t, model.Level2, got.TargetLevel)
		assert.Equal(t, 5, got.DrillsNeeded)
		assert.InDelta(t, 5.0, got.AccuracyNeeded, 1e-9)
		assert.Equal(t, 2, got.SafetyGap)
		assert.Less(t, got.Percentage, 100)
		assert.False(t, got.Ready())
	})

	t.Run("all thresholds exceeded", func(t *testing.T) {
		got, err := c.ProgressToNextLevel(cadet(model.Level1, 25, 80, 1))
		require.NoError(t, err)

		assert.Zero(t, got.DrillsNeeded)
		assert.Zero(t, got.AccuracyNeeded)
		assert.Zero(t, got.SafetyGap)
		assert.Equal(t, 100, got.Percentage)
		assert.True(t, got.Ready())
	})

	t.Run("thresholds met exactly", func(t *testing.T) {
		for _, lvl := range model.AllLevels[:4] {
			next, err := c.Get(lvl.Next())
			require.NoError(t, err)
			req := next.Requirements

			got, err := c.ProgressToNextLevel(cadet(lvl, req.DrillsCompleted, req.Accuracy, req.SafetyViolations))
			require.NoError(t, err)
			assert.Equal(t, 100, got.Percentage, "level %d", lvl)
			assert.True(t, got.Ready(), "level %d", lvl)
		}
	})

	t.Run("accuracy short by rounding noise", func(t *testing.T) {
		got, err := c.ProgressToNextLevel(cadet(model.Level1, 20, 74.99999999999999, 3))
		require.NoError(t, err)
		assert.Positive(t, got.AccuracyNeeded)
		assert.False(t, got.Ready())
		assert.Equal(t, 99, got.Percentage)
	})

	t.Run("one axis short is never 100", func(t *testing.T) {
		got, err := c.ProgressToNextLevel(cadet(model.Level4, 199, 99, 0))
		require.NoError(t, err)
		assert.Equal(t, 1, got.DrillsNeeded)
		assert.Less(t, got.Percentage, 100)
	})
}

func TestProgressToNextLevel_ContractViolations(t *testing.T) {
	c := DefaultCatalog()

	_, err := c.ProgressToNextLevel(cadet(model.Level5, 500, 100, 0))
	assert.ErrorIs(t, err, ErrMaxLevel)
	assert.ErrorIs(t, err, ErrContractViolation)

	for _, lvl := range []model.Level{0, 6, 255} {
		_, err := c.ProgressToNextLevel(cadet(lvl, 0, 0, 0))
		assert.ErrorIs(t, err, ErrInvalidLevel, "level %d", lvl)
		assert.ErrorIs(t, err, ErrContractViolation, "level %d", lvl)
	}

	assert.True(t, IsMaxLevel(cadet(model.Level5, 0, 0, 0)))
	assert.False(t, IsMaxLevel(cadet(model.Level4, 0, 0, 0)))
}

func TestProgressToNextLevel_GapsNeverNegative(t *testing.T) {
	c := DefaultCatalog()
	for _, lvl := range model.AllLevels[:4] {
		for drills := 0; drills <= 300; drills += 25 {
			for acc := 0.0; acc <= 100; acc += 12.5 {
				for v := 0; v <= 8; v++ {
					got, err := c.ProgressToNextLevel(cadet(lvl, drills, acc, v))
					require.NoError(t, err)
					assert.GreaterOrEqual(t, got.DrillsNeeded, 0)
					assert.GreaterOrEqual(t, got.AccuracyNeeded, 0.0)
					assert.GreaterOrEqual(t, got.SafetyGap, 0)
					assert.GreaterOrEqual(t, got.Percentage, 0)
					assert.LessOrEqual(t, got.Percentage, 100)
					assert.Equal(t, got.Ready(), got.Percentage == 100)
				}
			}
		}
	}
}

func TestProgressToNextLevel_Monotonic(t *testing.T) {
	c := DefaultCatalog()
	pct := func(p model.CadetProgress) int {
		got, err := c.ProgressToNextLevel(p)
		require.NoError(t, err)
		return got.Percentage
	}

	for _, lvl := range model.AllLevels[:4] {
		// 训练次数增加
		prev := -1
		for drills := 0; drills <= 250; drills++ {
			cur := pct(cadet(lvl, drills, 60, 4))
			assert.GreaterOrEqual(t, cur, prev, "drills=%d level=%d", drills, lvl)
			prev = cur
		}

		// 准确率提升
		prev = -1
		for acc := 0.0; acc <= 100; acc += 0.5 {
			cur := pct(cadet(lvl, 10, acc, 4))
			assert.GreaterOrEqual(t, cur, prev, "accuracy=%.1f level=%d", acc, lvl)
			prev = cur
		}

		// 违规减少
		prev = -1
		for v := 20; v >= 0; v-- {
			cur := pct(cadet(lvl, 10, 60, v))
			assert.GreaterOrEqual(t, cur, prev, "violations=%d level=%d", v, lvl)
			prev = cur
		}
	}
}

package progression

import (
	"fmt"

	"training_progress_backend/internal/model"
)

// Catalog 五级训练等级表，构建后只读
type Catalog struct {
	levels [model.LevelCount]model.ProgressionLevel
}

// NewCatalog 校验并构建等级表：恰好 5 级、无缺口、门槛单调
func NewCatalog(levels []model.ProgressionLevel) (*Catalog, error) {
	if len(levels) != model.LevelCount {
		return nil, fmt.Errorf("%w: expected %d levels, got %d", ErrInvalidCatalog, model.LevelCount, len(levels))
	}

	c := &Catalog{}
	seen := make(map[model.Level]bool, model.LevelCount)
	for _, l := range levels {
		if !l.Level.Valid() {
			return nil, fmt.Errorf("%w: level %d out of range", ErrInvalidCatalog, l.Level)
		}
		if seen[l.Level] {
			return nil, fmt.Errorf("%w: duplicate level %d", ErrInvalidCatalog, l.Level)
		}
		seen[l.Level] = true

		req := l.Requirements
		if req.DrillsCompleted < 0 || req.SafetyViolations < 0 {
			return nil, fmt.Errorf("%w: level %d has negative requirement", ErrInvalidCatalog, l.Level)
		}
		if req.Accuracy < 0 || req.Accuracy > 100 {
			return nil, fmt.Errorf("%w: level %d accuracy %.2f not within 0..100", ErrInvalidCatalog, l.Level, req.Accuracy)
		}

		l.AIUnlocks = append([]string(nil), l.AIUnlocks...)
		l.SafetyGates = append([]string(nil), l.SafetyGates...)
		c.levels[l.Level-1] = l
	}

	for i := 1; i < model.LevelCount; i++ {
		prev, cur := c.levels[i-1].Requirements, c.levels[i].Requirements
		if cur.DrillsCompleted < prev.DrillsCompleted {
			return nil, fmt.Errorf("%w: drills requirement decreases at level %d", ErrInvalidCatalog, i+1)
		}
		if cur.Accuracy < prev.Accuracy {
			return nil, fmt.Errorf("%w: accuracy requirement decreases at level %d", ErrInvalidCatalog, i+1)
		}
		if cur.SafetyViolations > prev.SafetyViolations {
			return nil, fmt.Errorf("%w: safety violation ceiling increases at level %d", ErrInvalidCatalog, i+1)
		}
	}

	return c, nil
}

// Get 唯一做运行期等级范围检查的入口
func (c *Catalog) Get(level model.Level) (model.ProgressionLevel, error) {
	if !level.Valid() {
		return model.ProgressionLevel{}, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return c.levels[level-1], nil
}

func (c *Catalog) Levels() []model.ProgressionLevel {
	out := make([]model.ProgressionLevel, 0, model.LevelCount)
	for _, l := range c.levels {
		l.AIUnlocks = append([]string(nil), l.AIUnlocks...)
		l.SafetyGates = append([]string(nil), l.SafetyGates...)
		out = append(out, l)
	}
	return out
}

// UnlockedFeatures 当前等级及以下所有等级解锁的 AI 功能，按等级顺序去重
func (c *Catalog) UnlockedFeatures(level model.Level) ([]string, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	seen := make(map[string]bool)
	features := []string{}
	for _, l := range c.levels[:level] {
		for _, f := range l.AIUnlocks {
			if !seen[f] {
				seen[f] = true
				features = append(features, f)
			}
		}
	}
	return features, nil
}

func (c *Catalog) IsFeatureUnlocked(level model.Level, feature string) bool {
	features, err := c.UnlockedFeatures(level)
	if err != nil {
		return false
	}
	for _, f := range features {
		if f == feature {
			return true
		}
	}
	return false
}

// ActiveSafetyGates 当前等级生效的安全关卡
func (c *Catalog) ActiveSafetyGates(level model.Level) ([]string, error) {
	l, err := c.Get(level)
	if err != nil {
		return nil, err
	}
	return append([]string{}, l.SafetyGates...), nil
}

// DefaultLevels 内置等级表
func DefaultLevels() []model.ProgressionLevel {
	return []model.ProgressionLevel{
		{
			Level:       model.Level1,
			Name:        "Foundation",
			Description: "Core procedures, safety briefings and supervised drills",
			Requirements: model.LevelRequirements{
				DrillsCompleted:  0,
				Accuracy:         0,
				SafetyViolations: 5,
			},
			AIUnlocks:   []string{"Guided drill walkthroughs", "Glossary assistant"},
			SafetyGates: []string{"Instructor present for every practical drill", "Pre-drill safety briefing acknowledged"},
			Color:       "gray",
		},
		{
			Level:       model.Level2,
			Name:        "Proficient",
			Description: "Executes standard drills with limited supervision",
			Requirements: model.LevelRequirements{
				DrillsCompleted:  20,
				Accuracy:         75,
				SafetyViolations: 3,
			},
			AIUnlocks:   []string{"Adaptive quiz generation", "Drill performance feedback"},
			SafetyGates: []string{"Safety checklist sign-off before live exercises"},
			Color:       "blue",
		},
		{
			Level:       model.Level3,
			Name:        "Advanced",
			Description: "Handles complex scenarios and rules-of-engagement decisions",
			Requirements: model.LevelRequirements{
				DrillsCompleted:  50,
				Accuracy:         82,
				SafetyViolations: 2,
			},
			AIUnlocks:   []string{"Scenario simulation assistant", "ROE decision coach"},
			SafetyGates: []string{"No-fly-zone validation on mission plans", "Peer review of firing data"},
			Color:       "green",
		},
		{
			Level:       model.Level4,
			Name:        "Expert",
			Description: "Leads teams and reviews trainee performance",
			Requirements: model.LevelRequirements{
				DrillsCompleted:  100,
				Accuracy:         88,
				SafetyViolations: 1,
			},
			AIUnlocks:   []string{"Mission debrief analytics", "Custom scenario authoring"},
			SafetyGates: []string{"Command approval for live-fire scenario changes"},
			Color:       "purple",
		},
		{
			Level:       model.Level5,
			Name:        "Master",
			Description: "Certified to instruct and evaluate other cadets",
			Requirements: model.LevelRequirements{
				DrillsCompleted:  200,
				Accuracy:         95,
				SafetyViolations: 0,
			},
			AIUnlocks:   []string{"Instructor assessment tools", "Batch performance insights"},
			SafetyGates: []string{"Annual safety recertification"},
			Color:       "gold",
		},
	}
}

// DefaultCatalog 内置等级表本身必须合法，否则直接 panic
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultLevels())
	if err != nil {
		panic(err)
	}
	return c
}

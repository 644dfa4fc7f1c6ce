package model

import "fmt"

// Level 训练等级，取值仅限 1..5
type Level uint8

const (
	Level1 Level = iota + 1
	Level2
	Level3
	Level4
	Level5
)

const (
	MinLevel   = Level1
	MaxLevel   = Level5
	LevelCount = int(MaxLevel)
)

var AllLevels = []Level{Level1, Level2, Level3, Level4, Level5}

func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

func (l Level) IsMax() bool {
	return l >= MaxLevel
}

// Next 调用方需先确认 !IsMax()
func (l Level) Next() Level {
	return l + 1
}

func (l Level) String() string {
	return fmt.Sprintf("L%d", uint8(l))
}

// LevelRequirements 晋级到该等级需满足的门槛
type LevelRequirements struct {
	DrillsCompleted  int     `json:"drillsCompleted" yaml:"drills_completed" mapstructure:"drills_completed"`
	Accuracy         float64 `json:"accuracy" yaml:"accuracy" mapstructure:"accuracy"`
	SafetyViolations int     `json:"safetyViolations" yaml:"safety_violations" mapstructure:"safety_violations"` // 允许的最大安全违规次数
}

// swagger:model ProgressionLevel
type ProgressionLevel struct {
	Level        Level             `json:"level" yaml:"level" mapstructure:"level"`
	Name         string            `json:"name" yaml:"name" mapstructure:"name"`
	Description  string            `json:"description" yaml:"description" mapstructure:"description"`
	Requirements LevelRequirements `json:"requirements" yaml:"requirements" mapstructure:"requirements"`
	AIUnlocks    []string          `json:"aiUnlocks" yaml:"ai_unlocks" mapstructure:"ai_unlocks"`
	SafetyGates  []string          `json:"safetyGates" yaml:"safety_gates" mapstructure:"safety_gates"`
	Color        string            `json:"color" yaml:"color" mapstructure:"color"`
}

package model

type TrainingEventType string

const (
	EventDrill         TrainingEventType = "drill"
	EventAssessment    TrainingEventType = "assessment"
	EventViolation     TrainingEventType = "violation"
	EventPromotion     TrainingEventType = "promotion"
	EventCertification TrainingEventType = "certification"
	EventArchive       TrainingEventType = "archive"
)

// swagger:model TrainingEvent
type TrainingEvent struct {
	BaseModel

	CadetProgressID uint              `gorm:"index;not null" json:"cadetProgressId"`
	Type            TrainingEventType `gorm:"size:32;index;not null" json:"type"`
	Score           *float64          `json:"score,omitempty"`
	Level           Level             `json:"level"` // 事件发生时（晋级/认证后）的等级
	Detail          string            `gorm:"size:255" json:"detail,omitempty"`
	ActorID         uint              `json:"actorId,omitempty"`
}

func (TrainingEvent) TableName() string {
	return "training_events"
}

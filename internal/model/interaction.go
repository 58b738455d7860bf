package model

import "time"

// AttemptInteraction 会话期间上报的单题交互记录，按 (attempt, interaction_id) 去重
// swagger:model AttemptInteraction
type AttemptInteraction struct {
	BaseModel
	AttemptID     uint   `gorm:"uniqueIndex:uq_attempt_interaction;type:bigint unsigned" json:"attemptId"`
	InteractionID string `gorm:"uniqueIndex:uq_attempt_interaction;size:255" json:"interactionId"`

	Type            string     `gorm:"size:30" json:"type"` // true-false / choice / fill-in ...
	LearnerResponse string     `gorm:"type:text" json:"learnerResponse"`
	CorrectResponse string     `gorm:"type:text" json:"correctResponse"`
	Result          string     `gorm:"size:30" json:"result"`
	ScoreRaw        *float64   `json:"scoreRaw,omitempty"`
	LatencySeconds  *float64   `json:"latencySeconds,omitempty"`
	Description     string     `gorm:"size:500" json:"description"`
	Timestamp       *time.Time `json:"timestamp,omitempty"`
}

func (AttemptInteraction) TableName() string {
	return "attempt_interactions"
}

// AttemptObjective 按 (attempt, objective_id) 去重的目标记录
// swagger:model AttemptObjective
type AttemptObjective struct {
	BaseModel
	AttemptID   uint   `gorm:"uniqueIndex:uq_attempt_objective;type:bigint unsigned" json:"attemptId"`
	ObjectiveID string `gorm:"uniqueIndex:uq_attempt_objective;size:255" json:"objectiveId"`

	ScoreRaw         *float64 `json:"scoreRaw,omitempty"`
	ScoreMin         *float64 `json:"scoreMin,omitempty"`
	ScoreMax         *float64 `json:"scoreMax,omitempty"`
	CompletionStatus string   `gorm:"size:20" json:"completionStatus"`
	SuccessStatus    string   `gorm:"size:20" json:"successStatus"`
}

func (AttemptObjective) TableName() string {
	return "attempt_objectives"
}

// AttemptComment 课件或学习者留下的批注，只追加不更新
// swagger:model AttemptComment
type AttemptComment struct {
	UUIDBase
	AttemptID uint       `gorm:"index;type:bigint unsigned" json:"attemptId"`
	Comment   string     `gorm:"type:text" json:"comment"`
	Location  string     `gorm:"size:500" json:"location"`
	Source    string     `gorm:"size:20;default:'learner'" json:"source"` // learner / lms
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (AttemptComment) TableName() string {
	return "attempt_comments"
}

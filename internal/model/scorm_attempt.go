package model

import "time"

type LessonStatus string

const (
	StatusNotAttempted LessonStatus = "not attempted"
	StatusIncomplete   LessonStatus = "incomplete"
	StatusCompleted    LessonStatus = "completed"
	StatusPassed       LessonStatus = "passed"
	StatusFailed       LessonStatus = "failed"
	StatusBrowsed      LessonStatus = "browsed"
)

// Terminal 是否为终态（完成/通过/未通过）
func (s LessonStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusPassed || s == StatusFailed
}

const (
	EntryAbInitio12   = "ab-initio"
	EntryAbInitio2004 = "ab_initio"
	EntryResume       = "resume"
)

// ScormAttempt 一个学习者对一个课件包的一次编号尝试。
// 强类型字段由 RTE 会话在 SetValue 时从 CMI 文档镜像而来，两者同步维护。
// swagger:model ScormAttempt
type ScormAttempt struct {
	BaseModel
	UserID        uint `gorm:"uniqueIndex:uq_attempt;type:bigint unsigned" json:"userId"`
	PackageID     uint `gorm:"uniqueIndex:uq_attempt;type:bigint unsigned" json:"packageId"`
	AttemptNumber int  `gorm:"uniqueIndex:uq_attempt;default:1" json:"attemptNumber"`

	LessonStatus     LessonStatus `gorm:"size:20;default:'not attempted'" json:"lessonStatus"`
	CompletionStatus string       `gorm:"size:20" json:"completionStatus"` // SCORM 2004
	SuccessStatus    string       `gorm:"size:20" json:"successStatus"`    // SCORM 2004

	ScoreRaw    *float64 `json:"scoreRaw,omitempty"`
	ScoreMin    *float64 `json:"scoreMin,omitempty"`
	ScoreMax    *float64 `json:"scoreMax,omitempty"`
	ScoreScaled *float64 `json:"scoreScaled,omitempty"` // SCORM 2004, [-1,1]

	TotalTimeSeconds float64 `gorm:"default:0" json:"totalTimeSeconds"` // 各 session_time 累加
	LessonLocation   string  `gorm:"size:1000" json:"lessonLocation"`
	SuspendData      string  `gorm:"type:text" json:"suspendData"`
	Entry            string  `gorm:"size:20" json:"entry"`
	ExitMode         string  `gorm:"size:20" json:"exitMode"`

	CMIData CMIDocument `gorm:"type:json" json:"cmiData"`

	StartedAt      time.Time  `json:"startedAt"`
	LastAccessedAt time.Time  `json:"lastAccessedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

func (ScormAttempt) TableName() string {
	return "scorm_attempts"
}

// HasBookmark 是否存在可恢复的书签证据
func (a *ScormAttempt) HasBookmark() bool {
	return a.LessonLocation != "" || a.SuspendData != ""
}

package model

import "time"

// TopicProgress 每个 (学习者, 主题) 一条的聚合进度记录。
// 多个课件包（映射到同一主题）的多次尝试同步进同一条记录；
// best_score 只升不降，completed 置真后不会被同步重置。
// swagger:model TopicProgress
type TopicProgress struct {
	BaseModel
	UserID  uint `gorm:"uniqueIndex:uq_topic_progress;type:bigint unsigned" json:"userId"`
	TopicID uint `gorm:"uniqueIndex:uq_topic_progress;type:bigint unsigned" json:"topicId"`

	LastScore *float64 `json:"lastScore,omitempty"`
	BestScore *float64 `json:"bestScore,omitempty"`

	Completed        bool       `gorm:"default:false" json:"completed"`
	CompletionMethod string     `gorm:"size:30" json:"completionMethod"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`

	Attempts       int       `gorm:"default:0" json:"attempts"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`

	// 同步审计元数据：哪个 attempt 在什么时候产生了当前值
	SyncMetadata string `gorm:"type:json" json:"syncMetadata"`
}

func (TopicProgress) TableName() string {
	return "topic_progress"
}

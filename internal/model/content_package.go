package model

type ScormVersion string

const (
	Scorm12   ScormVersion = "1.2"
	Scorm2004 ScormVersion = "2004"
)

// swagger:model Topic
type Topic struct {
	BaseModel
	CourseID uint   `gorm:"index;type:bigint unsigned" json:"courseId"`
	Title    string `gorm:"size:255;not null" json:"title"`
}

func (Topic) TableName() string {
	return "topics"
}

// ContentPackage 一个已上架的 SCORM 课件包（SCO 所在的 zip 包）
// swagger:model ContentPackage
type ContentPackage struct {
	BaseModel
	TopicID      uint         `gorm:"index;type:bigint unsigned" json:"topicId"`
	Title        string       `gorm:"size:255;not null" json:"title"`
	FileName     string       `gorm:"size:255" json:"fileName"` // 原始上传文件名，用于识别制作工具
	Version      ScormVersion `gorm:"size:10;default:'1.2'" json:"version"`
	MasteryScore *float64     `json:"masteryScore,omitempty"` // 及格分数线，包内声明，可为空
	LaunchPath   string       `gorm:"size:500" json:"launchPath"`
	URL          string       `gorm:"size:500" json:"url"`
}

func (ContentPackage) TableName() string {
	return "content_packages"
}

package repository

import (
	"scorm_lms_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// FindOrCreateTx 懒创建 (学习者, 主题) 的聚合进度行，必须在同步事务内调用
func (r *ProgressRepository) FindOrCreateTx(tx *gorm.DB, userID, topicID uint) (*model.TopicProgress, error) {
	var p model.TopicProgress
	err := tx.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	p = model.TopicProgress{UserID: userID, TopicID: topicID}
	if err := tx.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) SaveTx(tx *gorm.DB, p *model.TopicProgress) error {
	return tx.Save(p).Error
}

func (r *ProgressRepository) FindByUserAndTopic(userID, topicID uint) (*model.TopicProgress, error) {
	var p model.TopicProgress
	err := r.DB.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) ListByUser(userID uint) ([]model.TopicProgress, error) {
	var out []model.TopicProgress
	err := r.DB.Where("user_id = ?", userID).Order("last_accessed_at DESC").Find(&out).Error
	return out, err
}

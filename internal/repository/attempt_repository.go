package repository

import (
	"scorm_lms_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(a *model.ScormAttempt) error {
	return r.DB.Create(a).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.ScormAttempt, error) {
	var a model.ScormAttempt
	err := r.DB.First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindLatest 某学习者对某包的最近一次尝试（编号最大）
func (r *AttemptRepository) FindLatest(userID, packageID uint) (*model.ScormAttempt, error) {
	var a model.ScormAttempt
	err := r.DB.Where("user_id = ? AND package_id = ?", userID, packageID).
		Order("attempt_number DESC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) ListByUser(userID uint) ([]model.ScormAttempt, error) {
	var attempts []model.ScormAttempt
	err := r.DB.Where("user_id = ?", userID).
		Order("last_accessed_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) Save(a *model.ScormAttempt) error {
	return r.DB.Save(a).Error
}

// SaveTx 提交流程里与进度同步共用同一事务
func (r *AttemptRepository) SaveTx(tx *gorm.DB, a *model.ScormAttempt) error {
	return tx.Save(a).Error
}

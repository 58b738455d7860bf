package repository

import (
	"scorm_lms_backend/internal/model"

	"gorm.io/gorm"
)

type InteractionRepository struct {
	DB *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

// UpsertInteraction 按 (attempt, interaction_id) 去重，课件重复上报同一题时覆盖
func (r *InteractionRepository) UpsertInteraction(rec *model.AttemptInteraction) error {
	var existing model.AttemptInteraction
	err := r.DB.Where("attempt_id = ? AND interaction_id = ?", rec.AttemptID, rec.InteractionID).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(rec).Error
	}
	if err != nil {
		return err
	}
	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	return r.DB.Save(rec).Error
}

func (r *InteractionRepository) UpsertObjective(rec *model.AttemptObjective) error {
	var existing model.AttemptObjective
	err := r.DB.Where("attempt_id = ? AND objective_id = ?", rec.AttemptID, rec.ObjectiveID).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(rec).Error
	}
	if err != nil {
		return err
	}
	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	return r.DB.Save(rec).Error
}

func (r *InteractionRepository) AppendComment(rec *model.AttemptComment) error {
	return r.DB.Create(rec).Error
}

func (r *InteractionRepository) ListInteractions(attemptID uint) ([]model.AttemptInteraction, error) {
	var out []model.AttemptInteraction
	err := r.DB.Where("attempt_id = ?", attemptID).Order("id").Find(&out).Error
	return out, err
}

func (r *InteractionRepository) ListObjectives(attemptID uint) ([]model.AttemptObjective, error) {
	var out []model.AttemptObjective
	err := r.DB.Where("attempt_id = ?", attemptID).Order("id").Find(&out).Error
	return out, err
}

func (r *InteractionRepository) ListComments(attemptID uint) ([]model.AttemptComment, error) {
	var out []model.AttemptComment
	err := r.DB.Where("attempt_id = ?", attemptID).Order("created_at").Find(&out).Error
	return out, err
}

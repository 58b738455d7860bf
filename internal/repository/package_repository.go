package repository

import (
	"scorm_lms_backend/internal/model"

	"gorm.io/gorm"
)

type PackageRepository struct {
	DB *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{DB: db}
}

func (r *PackageRepository) Create(pkg *model.ContentPackage) error {
	return r.DB.Create(pkg).Error
}

func (r *PackageRepository) FindByID(id uint) (*model.ContentPackage, error) {
	var pkg model.ContentPackage
	err := r.DB.First(&pkg, id).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *PackageRepository) ListByTopic(topicID uint) ([]model.ContentPackage, error) {
	var pkgs []model.ContentPackage
	err := r.DB.Where("topic_id = ?", topicID).Order("id").Find(&pkgs).Error
	return pkgs, err
}

func (r *PackageRepository) FindTopic(id uint) (*model.Topic, error) {
	var topic model.Topic
	err := r.DB.First(&topic, id).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

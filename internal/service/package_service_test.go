package service

import (
	"context"
	"mime/multipart"
	"testing"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPackageService(t *testing.T) (*PackageService, *model.Topic) {
	db := newTestDB(t)
	topic := createTestTopic(t, db)
	return NewPackageService(repository.NewPackageRepository(db), nil, nil, nil), topic
}

func TestRegisterPackage(t *testing.T) {
	s, topic := newPackageService(t)
	ctx := context.Background()

	pkg := &model.ContentPackage{
		TopicID:      topic.ID,
		Title:        "Fire Safety",
		FileName:     "fire_safety_storyline.zip",
		Version:      model.Scorm2004,
		MasteryScore: fptr(70),
	}
	require.NoError(t, s.Register(ctx, pkg))

	got, err := s.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Scorm2004, got.Version)
	require.NotNil(t, got.MasteryScore)
	assert.Equal(t, 70.0, *got.MasteryScore)
}

func TestRegisterRejectsUnknownVersion(t *testing.T) {
	s, topic := newPackageService(t)
	err := s.Register(context.Background(), &model.ContentPackage{
		TopicID: topic.ID,
		Title:   "X",
		Version: "1.3",
	})
	assert.ErrorIs(t, err, util.ErrInvalidScormVer)
}

func TestRegisterRejectsUnknownTopic(t *testing.T) {
	s, _ := newPackageService(t)
	err := s.Register(context.Background(), &model.ContentPackage{
		TopicID: 9999,
		Title:   "X",
		Version: model.Scorm12,
	})
	assert.ErrorIs(t, err, util.ErrTopicNotFound)
}

func TestUploadArchiveRejectsNonZip(t *testing.T) {
	s, _ := newPackageService(t)
	_, err := s.UploadArchive(context.Background(), &multipart.FileHeader{Filename: "course.rar"})
	assert.ErrorIs(t, err, util.ErrInvalidArchiveExt)
}

func TestListByTopic(t *testing.T) {
	s, topic := newPackageService(t)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, &model.ContentPackage{TopicID: topic.ID, Title: "A", Version: model.Scorm12}))
	require.NoError(t, s.Register(ctx, &model.ContentPackage{TopicID: topic.ID, Title: "B", Version: model.Scorm2004}))

	pkgs, err := s.ListByTopic(topic.ID)
	require.NoError(t, err)
	assert.Len(t, pkgs, 2)
}

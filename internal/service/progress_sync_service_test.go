package service

import (
	"encoding/json"
	"testing"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSyncHarness(t *testing.T) (*gorm.DB, *ProgressSyncService) {
	db := newTestDB(t)
	return db, NewProgressSyncService(repository.NewProgressRepository(db), NewScoreService(), nil)
}

func syncAttempt(userID uint, number int, status model.LessonStatus, score *float64) *model.ScormAttempt {
	a := &model.ScormAttempt{
		UserID:        userID,
		AttemptNumber: number,
		LessonStatus:  status,
		ScoreRaw:      score,
		CMIData:       *model.NewCMIDocument(),
	}
	a.ID = uint(number)
	return a
}

func TestSynchronizeCreatesProgressRow(t *testing.T) {
	db, s := newSyncHarness(t)
	pkg := &model.ContentPackage{TopicID: 3, Version: model.Scorm12}
	pkg.ID = 9

	a := syncAttempt(1, 1, model.StatusPassed, fptr(85))
	require.NoError(t, s.SynchronizeTx(db, a, pkg, false))

	p, err := s.ProgressRepo.FindByUserAndTopic(1, 3)
	require.NoError(t, err)
	require.NotNil(t, p.LastScore)
	assert.Equal(t, 85.0, *p.LastScore)
	require.NotNil(t, p.BestScore)
	assert.Equal(t, 85.0, *p.BestScore)
	assert.True(t, p.Completed)
	assert.Equal(t, "passed", p.CompletionMethod)
	assert.NotNil(t, p.CompletedAt)
	assert.Equal(t, 1, p.Attempts)

	var meta syncMetadata
	require.NoError(t, json.Unmarshal([]byte(p.SyncMetadata), &meta))
	assert.Equal(t, a.ID, meta.AttemptID)
	assert.Equal(t, pkg.ID, meta.PackageID)
}

func TestBestScoreIsMonotonic(t *testing.T) {
	db, s := newSyncHarness(t)
	pkg := &model.ContentPackage{TopicID: 3, Version: model.Scorm12}

	require.NoError(t, s.SynchronizeTx(db, syncAttempt(1, 1, model.StatusPassed, fptr(85)), pkg, false))
	require.NoError(t, s.SynchronizeTx(db, syncAttempt(1, 2, model.StatusFailed, fptr(60)), pkg, false))

	p, err := s.ProgressRepo.FindByUserAndTopic(1, 3)
	require.NoError(t, err)
	// last 跟随最近一次，best 只升不降
	assert.Equal(t, 60.0, *p.LastScore)
	assert.Equal(t, 85.0, *p.BestScore)
	assert.Equal(t, 2, p.Attempts)
}

func TestCompletedIsSticky(t *testing.T) {
	db, s := newSyncHarness(t)
	pkg := &model.ContentPackage{TopicID: 3, Version: model.Scorm12}

	require.NoError(t, s.SynchronizeTx(db, syncAttempt(1, 1, model.StatusCompleted, fptr(80)), pkg, false))
	p, err := s.ProgressRepo.FindByUserAndTopic(1, 3)
	require.NoError(t, err)
	firstCompletedAt := p.CompletedAt
	require.NotNil(t, firstCompletedAt)

	// 之后的未完成尝试不撤销完成标记，也不改写完成时刻
	require.NoError(t, s.SynchronizeTx(db, syncAttempt(1, 2, model.StatusIncomplete, fptr(10)), pkg, false))
	p, err = s.ProgressRepo.FindByUserAndTopic(1, 3)
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.Equal(t, "completed", p.CompletionMethod)
	assert.Equal(t, firstCompletedAt.Unix(), p.CompletedAt.Unix())
}

func TestNothingToSyncSkips(t *testing.T) {
	db, s := newSyncHarness(t)
	pkg := &model.ContentPackage{TopicID: 3, Version: model.Scorm12}

	// 非终态且无分数：不创建进度行
	require.NoError(t, s.SynchronizeTx(db, syncAttempt(1, 1, model.StatusIncomplete, nil), pkg, false))
	_, err := s.ProgressRepo.FindByUserAndTopic(1, 3)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// force 穿透跳过判断
	require.NoError(t, s.SynchronizeTx(db, syncAttempt(1, 1, model.StatusIncomplete, nil), pkg, true))
	p, err := s.ProgressRepo.FindByUserAndTopic(1, 3)
	require.NoError(t, err)
	assert.Nil(t, p.BestScore)
	assert.False(t, p.Completed)
}

func TestZeroScoreSyncs(t *testing.T) {
	db, s := newSyncHarness(t)
	pkg := &model.ContentPackage{TopicID: 3, Version: model.Scorm12}

	require.NoError(t, s.SynchronizeTx(db, syncAttempt(1, 1, model.StatusIncomplete, fptr(0)), pkg, false))

	p, err := s.ProgressRepo.FindByUserAndTopic(1, 3)
	require.NoError(t, err)
	require.NotNil(t, p.LastScore)
	assert.Equal(t, 0.0, *p.LastScore)
	require.NotNil(t, p.BestScore)
	assert.Equal(t, 0.0, *p.BestScore)
}

func TestSynchronizeIsIdempotent(t *testing.T) {
	db, s := newSyncHarness(t)
	pkg := &model.ContentPackage{TopicID: 3, Version: model.Scorm12}
	a := syncAttempt(1, 1, model.StatusPassed, fptr(85))

	require.NoError(t, s.SynchronizeTx(db, a, pkg, false))
	require.NoError(t, s.SynchronizeTx(db, a, pkg, false))

	p, err := s.ProgressRepo.FindByUserAndTopic(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 85.0, *p.BestScore)
	assert.Equal(t, 1, p.Attempts)

	var count int64
	require.NoError(t, db.Model(&model.TopicProgress{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMultiplePackagesShareTopicRow(t *testing.T) {
	db, s := newSyncHarness(t)
	pkgA := &model.ContentPackage{TopicID: 3, Version: model.Scorm12}
	pkgA.ID = 1
	pkgB := &model.ContentPackage{TopicID: 3, Version: model.Scorm2004}
	pkgB.ID = 2

	require.NoError(t, s.SynchronizeTx(db, syncAttempt(1, 1, model.StatusPassed, fptr(70)), pkgA, false))
	require.NoError(t, s.SynchronizeTx(db, syncAttempt(1, 1, model.StatusPassed, fptr(90)), pkgB, false))

	p, err := s.ProgressRepo.FindByUserAndTopic(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 90.0, *p.BestScore)

	var count int64
	require.NoError(t, db.Model(&model.TopicProgress{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

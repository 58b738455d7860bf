package service

import (
	"context"
	"testing"
	"time"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/scorm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type rteHarness struct {
	db   *gorm.DB
	rte  *RTEService
	user *model.User
	pkg  *model.ContentPackage
}

func newRTEHarness(t *testing.T, version model.ScormVersion) *rteHarness {
	t.Helper()
	db := newTestDB(t)
	user := createTestUser(t, db)
	topic := createTestTopic(t, db)
	pkg := createTestPackage(t, db, topic.ID, version)

	pkgSvc := NewPackageService(repository.NewPackageRepository(db), nil, nil, nil)
	sync := NewProgressSyncService(repository.NewProgressRepository(db), NewScoreService(), nil)
	rte := NewRTEService(
		repository.NewAttemptRepository(db),
		repository.NewUserRepository(db),
		pkgSvc,
		NewResumeService(),
		sync,
		NewMemorySessionCache(time.Minute),
		db,
	)
	return &rteHarness{db: db, rte: rte, user: user, pkg: pkg}
}

func TestFullSessionLifecycle(t *testing.T) {
	h := newRTEHarness(t, model.Scorm12)
	ctx := context.Background()

	attempt, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, attempt.AttemptNumber)

	require.Equal(t, scorm.TrueString, h.rte.Initialize(ctx, h.user.ID, attempt.ID))
	// 新尝试无书签也按软恢复进入
	assert.Equal(t, "resume", h.rte.GetValue(ctx, h.user.ID, attempt.ID, "cmi.core.entry"))
	assert.Equal(t, "not attempted", h.rte.GetValue(ctx, h.user.ID, attempt.ID, "cmi.core.lesson_status"))

	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.core.score.raw", "85"))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.core.lesson_status", "passed"))
	require.Equal(t, scorm.TrueString, h.rte.Commit(ctx, h.user.ID, attempt.ID))

	// Commit 同一事务里完成了进度同步
	p, err := h.rte.Sync.GetTopicProgress(ctx, h.user.ID, h.pkg.TopicID)
	require.NoError(t, err)
	require.NotNil(t, p.LastScore)
	assert.Equal(t, 85.0, *p.LastScore)
	assert.Equal(t, 85.0, *p.BestScore)
	assert.True(t, p.Completed)

	require.Equal(t, scorm.TrueString, h.rte.Terminate(ctx, h.user.ID, attempt.ID))

	// 终止后的尝试已落库
	saved, err := h.rte.AttemptRepo.FindByID(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPassed, saved.LessonStatus)
	require.NotNil(t, saved.ScoreRaw)
	assert.Equal(t, 85.0, *saved.ScoreRaw)
	assert.NotNil(t, saved.CompletedAt)
}

func TestLaunchContinuesNonTerminalAttempt(t *testing.T) {
	h := newRTEHarness(t, model.Scorm12)
	ctx := context.Background()

	first, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)

	again, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, again.AttemptNumber)
}

func TestLaunchAfterTerminalAttemptIncrementsNumber(t *testing.T) {
	h := newRTEHarness(t, model.Scorm12)
	ctx := context.Background()

	first, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)

	require.Equal(t, scorm.TrueString, h.rte.Initialize(ctx, h.user.ID, first.ID))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, first.ID, "cmi.core.lesson_status", "passed"))
	require.Equal(t, scorm.TrueString, h.rte.Terminate(ctx, h.user.ID, first.ID))

	second, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, second.AttemptNumber)
}

func TestSecondAttemptNeverLowersBestScore(t *testing.T) {
	h := newRTEHarness(t, model.Scorm12)
	ctx := context.Background()

	run := func(score string, status string) {
		attempt, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
		require.NoError(t, err)
		require.Equal(t, scorm.TrueString, h.rte.Initialize(ctx, h.user.ID, attempt.ID))
		require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.core.score.raw", score))
		require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.core.lesson_status", status))
		require.Equal(t, scorm.TrueString, h.rte.Terminate(ctx, h.user.ID, attempt.ID))
	}

	run("85", "passed")
	run("60", "failed")

	p, err := h.rte.Sync.GetTopicProgress(ctx, h.user.ID, h.pkg.TopicID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, *p.LastScore)
	assert.Equal(t, 85.0, *p.BestScore)
	assert.True(t, p.Completed)
	assert.Equal(t, 2, p.Attempts)
}

func TestCallsAfterTerminateReturnNotInitialized(t *testing.T) {
	h := newRTEHarness(t, model.Scorm12)
	ctx := context.Background()

	attempt, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)
	require.Equal(t, scorm.TrueString, h.rte.Initialize(ctx, h.user.ID, attempt.ID))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.core.lesson_status", "completed"))
	require.Equal(t, scorm.TrueString, h.rte.Terminate(ctx, h.user.ID, attempt.ID))

	// Terminate 驱逐了缓存会话，重建出的会话同样未初始化
	assert.Equal(t, "", h.rte.GetValue(ctx, h.user.ID, attempt.ID, "cmi.core.lesson_status"))
	assert.Equal(t, scorm.ErrNotInitialized, h.rte.GetLastError(ctx, h.user.ID, attempt.ID))
}

func TestSuspendAndResumeAcrossSessions(t *testing.T) {
	h := newRTEHarness(t, model.Scorm12)
	ctx := context.Background()

	attempt, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)

	require.Equal(t, scorm.TrueString, h.rte.Initialize(ctx, h.user.ID, attempt.ID))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.core.lesson_status", "incomplete"))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.core.lesson_location", "page_12"))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.suspend_data", "state=12"))
	require.Equal(t, scorm.TrueString, h.rte.Terminate(ctx, h.user.ID, attempt.ID))

	// 再次启动回到同一 attempt，新会话按书签恢复
	again, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)
	require.Equal(t, attempt.ID, again.ID)

	require.Equal(t, scorm.TrueString, h.rte.Initialize(ctx, h.user.ID, again.ID))
	assert.Equal(t, "resume", h.rte.GetValue(ctx, h.user.ID, again.ID, "cmi.core.entry"))
	assert.Equal(t, "page_12", h.rte.GetValue(ctx, h.user.ID, again.ID, "cmi.core.lesson_location"))
	assert.Equal(t, "state=12", h.rte.GetValue(ctx, h.user.ID, again.ID, "cmi.suspend_data"))
}

func TestSessionTimeAccumulatesAcrossSessions(t *testing.T) {
	h := newRTEHarness(t, model.Scorm12)
	ctx := context.Background()

	attempt, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)

	require.Equal(t, scorm.TrueString, h.rte.Initialize(ctx, h.user.ID, attempt.ID))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.core.session_time", "0000:00:15"))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.core.lesson_status", "incomplete"))
	require.Equal(t, scorm.TrueString, h.rte.Terminate(ctx, h.user.ID, attempt.ID))

	again, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)
	require.Equal(t, scorm.TrueString, h.rte.Initialize(ctx, h.user.ID, again.ID))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, again.ID, "cmi.core.session_time", "0000:00:10"))

	assert.Equal(t, "0000:00:25.00", h.rte.GetValue(ctx, h.user.ID, again.ID, "cmi.core.total_time"))
}

func TestOwnershipIsEnforced(t *testing.T) {
	h := newRTEHarness(t, model.Scorm12)
	ctx := context.Background()

	intruder := &model.User{Name: "Mallory", Email: "mallory@example.com", Password: "x"}
	require.NoError(t, h.db.Create(intruder).Error)

	attempt, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)

	assert.Equal(t, scorm.FalseString, h.rte.Initialize(ctx, intruder.ID, attempt.ID))
	assert.Equal(t, "", h.rte.GetValue(ctx, intruder.ID, attempt.ID, "cmi.core.lesson_status"))

	_, err = h.rte.Attempt(intruder.ID, attempt.ID)
	assert.Error(t, err)
}

func TestLaunchUnknownPackageFails(t *testing.T) {
	h := newRTEHarness(t, model.Scorm12)
	_, err := h.rte.LaunchAttempt(context.Background(), h.user.ID, 9999)
	assert.Error(t, err)
}

func Test2004Lifecycle(t *testing.T) {
	h := newRTEHarness(t, model.Scorm2004)
	ctx := context.Background()

	attempt, err := h.rte.LaunchAttempt(ctx, h.user.ID, h.pkg.ID)
	require.NoError(t, err)

	require.Equal(t, scorm.TrueString, h.rte.Initialize(ctx, h.user.ID, attempt.ID))
	assert.Equal(t, "resume", h.rte.GetValue(ctx, h.user.ID, attempt.ID, "cmi.entry"))

	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.score.scaled", "0.85"))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.completion_status", "completed"))
	require.Equal(t, scorm.TrueString, h.rte.SetValue(ctx, h.user.ID, attempt.ID, "cmi.success_status", "passed"))
	require.Equal(t, scorm.TrueString, h.rte.Terminate(ctx, h.user.ID, attempt.ID))

	p, err := h.rte.Sync.GetTopicProgress(ctx, h.user.ID, h.pkg.TopicID)
	require.NoError(t, err)
	require.NotNil(t, p.BestScore)
	assert.Equal(t, 85.0, *p.BestScore)
	assert.True(t, p.Completed)
	assert.Equal(t, "passed", p.CompletionMethod)
}

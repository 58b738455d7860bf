package service

import (
	"context"
	"time"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/scorm"
	"scorm_lms_backend/internal/util"
	"scorm_lms_backend/pkg/logger"
	"scorm_lms_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RTEService RTE 协议的宿主侧编排：按 attempt id 定位/重建会话、
// 把 Commit/Terminate 的"持久化 attempt + 同步进度"裹进同一个事务、
// 同步成功后触发下游读缓存失效。
//
// 同一 attempt 被多个标签页同时打开时按 last-write-wins 容忍，
// RTE 协议本身没有冲突解决概念，不做乐观锁拒写。
type RTEService struct {
	AttemptRepo *repository.AttemptRepository
	UserRepo    *repository.UserRepository
	Packages    *PackageService
	Resume      *ResumeService
	Sync        *ProgressSyncService
	Sessions    SessionCache
	DB          *gorm.DB
}

func NewRTEService(
	attemptRepo *repository.AttemptRepository,
	userRepo *repository.UserRepository,
	packages *PackageService,
	resume *ResumeService,
	sync *ProgressSyncService,
	sessions SessionCache,
	db *gorm.DB,
) *RTEService {
	return &RTEService{
		AttemptRepo: attemptRepo,
		UserRepo:    userRepo,
		Packages:    packages,
		Resume:      resume,
		Sync:        sync,
		Sessions:    sessions,
		DB:          db,
	}
}

// LaunchAttempt 学习者打开课件：上次尝试还没到终态就继续它，否则开新编号
func (s *RTEService) LaunchAttempt(ctx context.Context, userID, packageID uint) (*model.ScormAttempt, error) {
	pkg, err := s.Packages.GetPackage(ctx, packageID)
	if err != nil {
		return nil, util.ErrPackageNotFound
	}

	latest, err := s.AttemptRepo.FindLatest(userID, packageID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if latest != nil && !latest.LessonStatus.Terminal() {
		return latest, nil
	}

	number := 1
	if latest != nil {
		number = latest.AttemptNumber + 1
	}

	now := time.Now()
	attempt := &model.ScormAttempt{
		UserID:         userID,
		PackageID:      pkg.ID,
		AttemptNumber:  number,
		LessonStatus:   model.StatusNotAttempted,
		CMIData:        *model.NewCMIDocument(),
		StartedAt:      now,
		LastAccessedAt: now,
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		return nil, err
	}

	logger.Log.Info("scorm attempt launched",
		zap.Uint("userId", userID),
		zap.Uint("packageId", packageID),
		zap.Int("attemptNumber", number))
	return attempt, nil
}

// Initialize 协议入口，返回 "true"/"false"
func (s *RTEService) Initialize(ctx context.Context, userID, attemptID uint) string {
	sess, err := s.session(ctx, userID, attemptID)
	if err != nil {
		monitoring.ObserveRTECall("Initialize", scorm.ErrGeneralException)
		return scorm.FalseString
	}
	result := sess.Initialize()
	monitoring.ObserveRTECall("Initialize", sess.GetLastError())
	return result
}

func (s *RTEService) GetValue(ctx context.Context, userID, attemptID uint, element string) string {
	sess, err := s.session(ctx, userID, attemptID)
	if err != nil {
		monitoring.ObserveRTECall("GetValue", scorm.ErrGeneralException)
		return ""
	}
	v := sess.GetValue(element)
	monitoring.ObserveRTECall("GetValue", sess.GetLastError())
	return v
}

func (s *RTEService) SetValue(ctx context.Context, userID, attemptID uint, element, value string) string {
	sess, err := s.session(ctx, userID, attemptID)
	if err != nil {
		monitoring.ObserveRTECall("SetValue", scorm.ErrGeneralException)
		return scorm.FalseString
	}
	result := sess.SetValue(element, value)
	monitoring.ObserveRTECall("SetValue", sess.GetLastError())
	return result
}

func (s *RTEService) Commit(ctx context.Context, userID, attemptID uint) string {
	sess, err := s.session(ctx, userID, attemptID)
	if err != nil {
		monitoring.ObserveRTECall("Commit", scorm.ErrGeneralException)
		return scorm.FalseString
	}
	result := sess.Commit()
	monitoring.ObserveRTECall("Commit", sess.GetLastError())
	return result
}

func (s *RTEService) Terminate(ctx context.Context, userID, attemptID uint) string {
	sess, err := s.session(ctx, userID, attemptID)
	if err != nil {
		monitoring.ObserveRTECall("Terminate", scorm.ErrGeneralException)
		return scorm.FalseString
	}
	result := sess.Terminate()
	monitoring.ObserveRTECall("Terminate", sess.GetLastError())
	// 终态会话不值得再占缓存；之后的调用重建出的会话同样回 301
	s.Sessions.Invalidate(attemptID)
	return result
}

func (s *RTEService) GetLastError(ctx context.Context, userID, attemptID uint) string {
	sess, err := s.session(ctx, userID, attemptID)
	if err != nil {
		return scorm.ErrGeneralException
	}
	return sess.GetLastError()
}

// GetErrorString / GetDiagnostic 纯查表，不依赖会话状态
func (s *RTEService) GetErrorString(code string) string {
	return scorm.ErrorString(code)
}

func (s *RTEService) GetDiagnostic(code string) string {
	return scorm.Diagnostic(code)
}

// Attempt 带归属校验的 attempt 读取，交互记录等非协议端点用
func (s *RTEService) Attempt(userID, attemptID uint) (*model.ScormAttempt, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, util.ErrAttemptNotOwned
	}
	return attempt, nil
}

// session 缓存命中直接用，miss 从持久化的 attempt 重建出行为一致的会话
func (s *RTEService) session(ctx context.Context, userID, attemptID uint) (*scorm.Session, error) {
	if sess, ok := s.Sessions.Get(attemptID); ok {
		if sess.Attempt().UserID != userID {
			return nil, util.ErrAttemptNotOwned
		}
		return sess, nil
	}

	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, util.ErrAttemptNotOwned
	}

	pkg, err := s.Packages.GetPackage(ctx, attempt.PackageID)
	if err != nil {
		return nil, util.ErrPackageNotFound
	}

	learner, err := s.UserRepo.FindByID(attempt.UserID)
	if err != nil {
		// 身份字段缺了也不挡会话，课件拿到空 student_name 而已
		logger.Log.Warn("learner lookup failed for scorm session",
			zap.Uint("userId", attempt.UserID), zap.Error(err))
		learner = nil
	}

	sess := scorm.NewSession(attempt, pkg, learner, s.committer(ctx, pkg), s.Resume.Seed)
	s.Sessions.Set(attemptID, sess)
	return sess, nil
}

// committer 单个作用域事务覆盖"持久化 attempt + 同步进度"：
// 读者看不到进度更新了而 attempt 字段还没落库的中间态，反之亦然
func (s *RTEService) committer(ctx context.Context, pkg *model.ContentPackage) scorm.Committer {
	return func(a *model.ScormAttempt) error {
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			if err := s.AttemptRepo.SaveTx(tx, a); err != nil {
				return err
			}
			return s.Sync.SynchronizeTx(tx, a, pkg, false)
		})
		if err != nil {
			return err
		}
		s.Sync.InvalidateCaches(ctx, a.UserID, pkg.TopicID)
		return nil
	}
}

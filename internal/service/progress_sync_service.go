package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/scorm"
	"scorm_lms_backend/pkg/logger"
	"scorm_lms_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const progressCacheTTL = 5 * time.Minute

// syncMetadata 同步审计元数据，记录当前值由哪次尝试在什么时候产生
type syncMetadata struct {
	AttemptID     uint      `json:"attemptId"`
	AttemptNumber int       `json:"attemptNumber"`
	PackageID     uint      `json:"packageId"`
	SyncedAt      time.Time `json:"syncedAt"`
}

// ProgressSyncService 把一次尝试的分数/完成/时间对账进 (学习者, 主题) 聚合进度。
// 幂等且与调用顺序无关：best_score 只升不降，completed 置真后不回退，
// 多个 attempt 并发同步同一行靠棘轮语义保证安全。
type ProgressSyncService struct {
	ProgressRepo *repository.ProgressRepository
	Score        *ScoreService
	Redis        *redis.Client
}

func NewProgressSyncService(progressRepo *repository.ProgressRepository, score *ScoreService, rdb *redis.Client) *ProgressSyncService {
	return &ProgressSyncService{
		ProgressRepo: progressRepo,
		Score:        score,
		Redis:        rdb,
	}
}

// SynchronizeTx 在调用方的事务里执行：持久化 attempt 和进度更新要么一起生效要么一起回滚
func (s *ProgressSyncService) SynchronizeTx(tx *gorm.DB, a *model.ScormAttempt, pkg *model.ContentPackage, force bool) error {
	dm := scorm.DataModelFor(pkg.Version)
	extracted := s.Score.Extract(a, dm)

	if !force && !extracted.ShouldSync {
		monitoring.ProgressSyncCounter.WithLabelValues("skipped").Inc()
		return nil
	}

	p, err := s.ProgressRepo.FindOrCreateTx(tx, a.UserID, pkg.TopicID)
	if err != nil {
		monitoring.ProgressSyncCounter.WithLabelValues("error").Inc()
		return err
	}

	// last_score 最近写入无条件获胜
	p.LastScore = extracted.Score

	// best_score 单向棘轮，只升不降
	if extracted.Score != nil && (p.BestScore == nil || *extracted.Score > *p.BestScore) {
		v := *extracted.Score
		p.BestScore = &v
	}

	// completed 首次达到终态时置真并记方法和时刻，此后永不被同步重置
	if !p.Completed && a.LessonStatus.Terminal() {
		now := time.Now()
		p.Completed = true
		p.CompletionMethod = string(a.LessonStatus)
		p.CompletedAt = &now
	}

	if a.AttemptNumber > p.Attempts {
		p.Attempts = a.AttemptNumber
	}
	p.LastAccessedAt = time.Now()

	meta, err := json.Marshal(syncMetadata{
		AttemptID:     a.ID,
		AttemptNumber: a.AttemptNumber,
		PackageID:     pkg.ID,
		SyncedAt:      time.Now(),
	})
	if err != nil {
		monitoring.ProgressSyncCounter.WithLabelValues("error").Inc()
		return err
	}
	p.SyncMetadata = string(meta)

	if err := s.ProgressRepo.SaveTx(tx, p); err != nil {
		monitoring.ProgressSyncCounter.WithLabelValues("error").Inc()
		return err
	}

	monitoring.ProgressSyncCounter.WithLabelValues("ok").Inc()
	return nil
}

// InvalidateCaches 同步成功后触发下游读缓存失效；redis 不可用只降级不报错
func (s *ProgressSyncService) InvalidateCaches(ctx context.Context, userID, topicID uint) {
	if s.Redis == nil {
		return
	}
	patterns := []string{
		fmt.Sprintf("progress:user:%d*", userID),
		fmt.Sprintf("progress:topic:%d*", topicID),
	}
	for _, pattern := range patterns {
		keys, err := s.Redis.Keys(ctx, pattern).Result()
		if err != nil {
			logger.Log.Warn("progress cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		if len(keys) > 0 {
			if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
				logger.Log.Warn("progress cache delete failed", zap.Error(err))
			}
		}
	}
}

// GetUserProgress 报表/成绩册读路径，带 redis 读缓存，miss 或故障直接回源
func (s *ProgressSyncService) GetUserProgress(ctx context.Context, userID uint) ([]model.TopicProgress, error) {
	cacheKey := fmt.Sprintf("progress:user:%d", userID)

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var out []model.TopicProgress
			if err := json.Unmarshal([]byte(cached), &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := s.ProgressRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if b, err := json.Marshal(out); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, b, progressCacheTTL).Err(); err != nil {
				logger.Log.Debug("progress cache set failed", zap.Error(err))
			}
		}
	}
	return out, nil
}

// GetTopicProgress 单主题读路径
func (s *ProgressSyncService) GetTopicProgress(ctx context.Context, userID, topicID uint) (*model.TopicProgress, error) {
	return s.ProgressRepo.FindByUserAndTopic(userID, topicID)
}

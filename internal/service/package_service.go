package service

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"scorm_lms_backend/internal/config"
	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/util"
	"scorm_lms_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PackageService 课件包登记与查询。
// 包元数据（版本/及格线/主题）RTE 每次调用都要，用 redis 缓一层，
// redis 不可用时降级为直接读库，绝不把缓存故障变成错误。
type PackageService struct {
	PackageRepo    *repository.PackageRepository
	StorageService *StorageService
	Redis          *redis.Client
	Cfg            *config.Config
}

func NewPackageService(packageRepo *repository.PackageRepository, storageService *StorageService, rdb *redis.Client, cfg *config.Config) *PackageService {
	return &PackageService{
		PackageRepo:    packageRepo,
		StorageService: storageService,
		Redis:          rdb,
		Cfg:            cfg,
	}
}

func packageCacheKey(id uint) string {
	return fmt.Sprintf("scorm:pkg:%d", id)
}

// GetPackage 版本、及格线、主题 id 的包查询，带缓存
func (s *PackageService) GetPackage(ctx context.Context, id uint) (*model.ContentPackage, error) {
	key := packageCacheKey(id)

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, key).Result(); err == nil && cached != "" {
			var pkg model.ContentPackage
			if err := json.Unmarshal([]byte(cached), &pkg); err == nil {
				return &pkg, nil
			}
		}
	}

	pkg, err := s.PackageRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		ttl := time.Duration(s.cacheMinutes()) * time.Minute
		if b, err := json.Marshal(pkg); err == nil {
			if err := s.Redis.Set(ctx, key, b, ttl).Err(); err != nil {
				logger.Log.Debug("package cache set failed", zap.Error(err))
			}
		}
	}
	return pkg, nil
}

// Register 登记一个课件包；manifest 解析不在本服务范围，版本和入口由登记方提供
func (s *PackageService) Register(ctx context.Context, pkg *model.ContentPackage) error {
	if pkg.Version != model.Scorm12 && pkg.Version != model.Scorm2004 {
		return util.ErrInvalidScormVer
	}
	if _, err := s.PackageRepo.FindTopic(pkg.TopicID); err != nil {
		return util.ErrTopicNotFound
	}
	if err := s.PackageRepo.Create(pkg); err != nil {
		return err
	}
	s.invalidate(ctx, pkg.ID)
	return nil
}

// UploadArchive 上传课件包 zip 到对象存储，返回访问 URL
func (s *PackageService) UploadArchive(ctx context.Context, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".zip" {
		return "", util.ErrInvalidArchiveExt
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	filename := "packages/" + time.Now().Format("20060102150405") + "_" + file.Filename
	return s.StorageService.Upload(ctx, filename, src, file.Size, util.MimeZip)
}

func (s *PackageService) ListByTopic(topicID uint) ([]model.ContentPackage, error) {
	return s.PackageRepo.ListByTopic(topicID)
}

func (s *PackageService) invalidate(ctx context.Context, id uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, packageCacheKey(id)).Err(); err != nil {
		logger.Log.Debug("package cache invalidation failed", zap.Error(err))
	}
}

func (s *PackageService) cacheMinutes() int {
	if s.Cfg != nil && s.Cfg.RTE.PackageCacheMinutes > 0 {
		return s.Cfg.RTE.PackageCacheMinutes
	}
	return 10
}

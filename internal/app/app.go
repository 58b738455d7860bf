package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scorm_lms_backend/internal/config"
	"scorm_lms_backend/internal/controller"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/service"
	"scorm_lms_backend/pkg/database"
	"scorm_lms_backend/pkg/logger"
	"scorm_lms_backend/pkg/monitoring"
	"scorm_lms_backend/pkg/security"
	"scorm_lms_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
	tracerShutdown  func(context.Context) error
}

type repositories struct {
	user        *repository.UserRepository
	pkg         *repository.PackageRepository
	attempt     *repository.AttemptRepository
	progress    *repository.ProgressRepository
	interaction *repository.InteractionRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	pkg         *service.PackageService
	resume      *service.ResumeService
	score       *service.ScoreService
	sync        *service.ProgressSyncService
	interaction *service.InteractionService
	rte         *service.RTEService
}

type controllers struct {
	auth     *controller.AuthController
	scorm    *controller.ScormController
	pkg      *controller.PackageController
	progress *controller.ProgressController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置热更新：原地覆盖共享的 Config，持有该指针的服务立即可见
func (a *App) ReloadConfig(newCfg *config.Config) {
	*a.Config = *newCfg
	for _, cb := range a.configCallbacks {
		cb(a.Config)
	}
	logger.Log.Info("config reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		pkg:         repository.NewPackageRepository(db),
		attempt:     repository.NewAttemptRepository(db),
		progress:    repository.NewProgressRepository(db),
		interaction: repository.NewInteractionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.pkg = service.NewPackageService(repos.pkg, s.storage, rdb, cfg)
	s.resume = service.NewResumeService()
	s.score = service.NewScoreService()
	s.sync = service.NewProgressSyncService(repos.progress, s.score, rdb)
	s.interaction = service.NewInteractionService(repos.interaction)

	sessionTTL := time.Duration(cfg.RTE.SessionTTLMinutes) * time.Minute
	s.rte = service.NewRTEService(
		repos.attempt,
		repos.user,
		s.pkg,
		s.resume,
		s.sync,
		service.NewMemorySessionCache(sessionTTL),
		db,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		scorm:    controller.NewScormController(s.rte, s.interaction),
		pkg:      controller.NewPackageController(s.pkg),
		progress: controller.NewProgressController(s.sync),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("scorm-platform", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		// 进程退出时才关闭，期间 span 持续导出
		app.tracerShutdown = tp.Shutdown
	}

	app.registerRoutes(router, controllers, cfg)

	// 本地存储时课件内容直接静态托管，课件帧从 /content 加载资源
	if cfg.Storage.Type == "local" {
		router.Static("/content", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	a.shutdownTracer(ctx)

	log.Println("Server exiting")
}

// shutdownTracer 把缓冲中的 span 刷给 collector，未开启追踪时为空操作
func (a *App) shutdownTracer(ctx context.Context) {
	if a.tracerShutdown == nil {
		return
	}
	if err := a.tracerShutdown(ctx); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
}

package app

import (
	"scorm_lms_backend/docs"
	"scorm_lms_backend/internal/config"
	"scorm_lms_backend/internal/middleware"
	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		a.registerScormRoutes(authGroup, c)
		a.registerProgressRoutes(authGroup, c)
		a.registerPackageRoutes(authGroup, c)
	}
}

// registerScormRoutes 课件帧的 RTE 协议端点与明细上报端点
func (a *App) registerScormRoutes(rg *gin.RouterGroup, c *controllers) {
	scorm := rg.Group("/scorm")
	{
		scorm.POST("/packages/:id/launch", c.scorm.Launch)

		attempts := scorm.Group("/attempts/:id")
		{
			// 协议端点，返回裸协议字符串
			attempts.POST("/initialize", c.scorm.Initialize)
			attempts.GET("/value", c.scorm.GetValue)
			attempts.POST("/value", c.scorm.SetValue)
			attempts.POST("/commit", c.scorm.Commit)
			attempts.POST("/terminate", c.scorm.Terminate)
			attempts.GET("/last-error", c.scorm.GetLastError)
			attempts.GET("/error-string", c.scorm.GetErrorString)
			attempts.GET("/diagnostic", c.scorm.GetDiagnostic)

			// 明细上报，JSON 信封
			attempts.POST("/interactions", c.scorm.RecordInteraction)
			attempts.POST("/objectives", c.scorm.RecordObjective)
			attempts.POST("/comments", c.scorm.RecordComment)
		}
	}
}

func (a *App) registerProgressRoutes(rg *gin.RouterGroup, c *controllers) {
	progress := rg.Group("/progress")
	{
		progress.GET("/me", c.progress.GetMyProgress)
		progress.GET("/topics/:topicId", c.progress.GetTopicProgress)
	}
}

// registerPackageRoutes 课件包管理，登记/上传仅教师和管理员可用
func (a *App) registerPackageRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/topics/:topicId/packages", c.pkg.ListByTopic)
	rg.GET("/scorm/packages/:id", c.pkg.Get)

	manage := rg.Group("/scorm/packages")
	manage.Use(middleware.RoleMiddleware(model.Teacher))
	{
		manage.POST("", c.pkg.Register)
		manage.POST("/upload", c.pkg.Upload)
	}
}

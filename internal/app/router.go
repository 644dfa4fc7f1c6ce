package app

import (
	"training_progress_backend/internal/config"
	"training_progress_backend/internal/middleware"
	"training_progress_backend/internal/model"
	"training_progress_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		// 学员只能查看本人记录，训练结果由教官录入
		a.registerCadetRoutes(authGroup, c)

		// 教官相关接口
		a.registerInstructorRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/levels", c.level.ListLevels)
	}
}

func (a *App) registerCadetRoutes(group *gin.RouterGroup, c *controllers) {
	cadets := group.Group("/cadets/:number")
	cadets.Use(middleware.SelfOrStaff("number"))
	{
		cadets.GET("/progress", c.progression.GetProgress)
		cadets.GET("/events", c.progression.ListEvents)

		staffOnly := middleware.RoleMiddleware(model.Instructor)
		cadets.POST("/drills", staffOnly, c.progression.RecordDrill)
		cadets.POST("/assessments", staffOnly, c.progression.RecordAssessment)
		cadets.POST("/violations", staffOnly, c.progression.RecordViolation)
	}
}

func (a *App) registerInstructorRoutes(group *gin.RouterGroup, c *controllers) {
	instructor := group.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		instructor.POST("/cadets/:number/promote", c.progression.Promote)
		instructor.POST("/cadets/:number/certifications", c.progression.Certify)
		instructor.POST("/cadets/:number/archive", c.progression.Archive)
		instructor.GET("/archives/*filepath", c.archive.Download)

		instructor.POST("/batches", c.batch.CreateBatch)
		instructor.GET("/batches", c.batch.ListBatches)
		instructor.GET("/batches/:code/stats", c.batch.GetStats)
		instructor.GET("/batches/:code/cadets", c.batch.ListCadets)
	}
}

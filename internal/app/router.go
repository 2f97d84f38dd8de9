package app

import (
	"interview_trainer_backend/docs"
	"interview_trainer_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)


		// 面试生命周期
		api.POST("/upload", c.interview.Upload)
		api.POST("/job", c.interview.SetJob)
		api.POST("/settings", c.interview.SetSettings)
		api.POST("/persona", c.interview.SetPersona)
		api.POST("/metrics", c.interview.RecordMetrics)
		api.POST("/chat", c.interview.Chat)
		api.POST("/report", c.interview.Report)
		api.GET("/history/:userId", c.interview.History)

		// 诊断
		api.GET("/list-models", c.interview.ListModels)
	}
}

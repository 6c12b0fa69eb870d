package routes

import (
	"github.com/gin-gonic/gin"

	"uirecorder/internal/api/handlers"
	"uirecorder/internal/api/middleware"
	"uirecorder/internal/config"
	"uirecorder/pkg/metrics"
)

func SetupRoutes(cfg *config.Config, h *handlers.Handler) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	// Recorder extension endpoints
	router.GET("/health", h.Ping)
	router.POST("/actions", h.PostActions)
	router.GET("/testcases", h.GetTestCases)
	router.POST("/clear", h.Clear)
	router.GET("/export-excel", h.ExportExcel)
	router.GET("/script", h.GetScript)

	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Login)
		v1.GET("/health", h.HealthCheck)

		// WebSocket endpoint (no auth middleware for WebSocket)
		v1.GET("/ws/recording", h.RecordingWebSocket)
		v1.GET("/screenshots/*filepath", h.ServeScreenshot)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(cfg.JWT.Enabled))
		{
			recording := protected.Group("/recording")
			{
				recording.POST("/start", h.StartRecording)
				recording.POST("/stop", h.StopRecording)
				recording.GET("/status", h.GetRecordingStatus)
				recording.POST("/save", h.SaveRecording)
			}

			suites := protected.Group("/suites")
			{
				suites.GET("", h.GetTestSuites)
				suites.POST("", h.CreateTestSuite)
				suites.GET("/:id", h.GetTestSuite)
				suites.PUT("/:id", h.UpdateTestSuite)
				suites.DELETE("/:id", h.DeleteTestSuite)
				suites.POST("/:id/replay", h.ReplayTestSuite)
				suites.GET("/:id/script", h.GetTestSuiteScript)
			}

			protected.POST("/replay", h.ReplayTestCases)

			runs := protected.Group("/runs")
			{
				runs.GET("", h.GetExecutions)
				runs.GET("/:id", h.GetExecution)
				runs.POST("/:id/stop", h.StopExecution)
				runs.GET("/:id/screenshots", h.GetExecutionScreenshots)
			}
		}
	}

	return router
}

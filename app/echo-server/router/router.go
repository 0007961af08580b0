package router

import (
	"cochain/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetRecommendationRoutes(api *echo.Group, handler *rest.RecommendHandler) {
	reco := api.Group("/recommendations")
	reco.GET("", handler.GetRecommendations)
	reco.POST("/interactions", handler.RecordInteraction)
	reco.POST("/invalidate", handler.InvalidateCache)
	reco.GET("/performance", handler.GetPerformance)
}

func SetProjectRoutes(api *echo.Group, handler *rest.ProjectHandler) {
	projects := api.Group("/recommendations/projects")
	projects.GET("/top", handler.GetTopProjects)
	projects.GET("/:id/stats", handler.GetProjectStats)
}

func SetABTestAdminRoutes(api *echo.Group, handler *rest.ABTestAdminHandler) {
	admin := api.Group("/admin/abtests")
	admin.GET("/active", handler.GetActiveTest)
	admin.GET("/group", handler.GetUserGroup)
	admin.POST("", handler.StartTest)
	admin.GET("/:id/metrics", handler.GetTestMetrics)
	admin.POST("/:id/end", handler.EndTest)
}

func SetTrainingAdminRoutes(api *echo.Group, handler *rest.TrainingAdminHandler) {
	admin := api.Group("/admin")
	admin.POST("/training/run", handler.RunTraining)
	admin.POST("/training/sweep", handler.SweepCache)
	admin.GET("/training/history", handler.GetHistory)
	admin.POST("/bandit/:id/reset", handler.ResetBandit)
}

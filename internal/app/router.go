package app

import (
	"evalmate_backend/internal/config"
	"evalmate_backend/internal/middleware"
	"evalmate_backend/internal/model"
	"evalmate_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)
		authGroup.PUT("/profile/personal", c.profile.UpdatePersonal)
		authGroup.PUT("/profile/academic", c.profile.UpdateAcademic)
		authGroup.POST("/profile/picture", c.profile.UploadPicture)

		a.registerStudentRoutes(authGroup, c)
		a.registerFacultyRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	student := rg.Group("/student")
	student.Use(middleware.RoleMiddleware(model.Student))
	{
		student.GET("/dashboard", c.student.Dashboard)
		student.GET("/pending", c.student.Pending)
		student.DELETE("/pending/:id", c.student.RemovePending)
		student.GET("/history", c.student.History)
		student.GET("/history/:id", c.student.HistoryDetail)

		student.GET("/forms/search", c.evaluation.Search)
		student.GET("/forms/:id", c.evaluation.Open)
		student.POST("/forms/:id/access", c.evaluation.Access)

		student.POST("/evaluations/:id/team", c.evaluation.TeamSetup)
		student.GET("/evaluations/:id/resume", c.evaluation.Resume)
		student.POST("/evaluations/:id/submit", c.evaluation.Submit)
		student.POST("/evaluations/:id/navigate", c.evaluation.Navigate)

		student.PUT("/drafts/:id", c.student.SaveDraft)
		student.GET("/drafts/:id", c.student.GetDraft)
		student.DELETE("/drafts/:id", c.student.DeleteDraft)
	}
}

func (a *App) registerFacultyRoutes(rg *gin.RouterGroup, c *controllers) {
	faculty := rg.Group("/faculty")
	faculty.Use(middleware.RoleMiddleware(model.Faculty))
	{
		faculty.GET("/dashboard", c.report.Dashboard)

		faculty.POST("/forms", c.form.Save)
		faculty.GET("/forms", c.form.List)
		faculty.GET("/forms/:id", c.form.Details)
		faculty.DELETE("/forms/:id", c.form.Delete)
		faculty.POST("/forms/:id/duplicate", c.form.Duplicate)
		faculty.POST("/forms/:id/publish", c.form.Publish)
		faculty.POST("/forms/:id/unpublish", c.form.Unpublish)

		faculty.GET("/forms/:id/summary", c.report.Summary)
		faculty.GET("/forms/:id/responses", c.report.Responses)
		faculty.GET("/responses/:id", c.report.ResponseDetail)
	}
}

package app

import (
	"pracas_backend/docs"
	"pracas_backend/internal/access"
	"pracas_backend/internal/config"
	"pracas_backend/internal/middleware"
	"pracas_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret, repos.user))
	{
		a.registerUserRoutes(authGroup, c)
		a.registerLocationRoutes(authGroup, c)
		a.registerFormRoutes(authGroup, c)
		a.registerAssessmentRoutes(authGroup, c)
		a.registerTallyRoutes(authGroup, c)

		authGroup.POST("/export/csv", middleware.RequireGroups(access.GroupPark), c.export.ExportCSV)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/login", c.auth.Login)
		public.POST("/auth/register", c.auth.Register)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/users/me", c.auth.Me)
	rg.PUT("/users/me/username", c.user.UpdateUsername)

	users := rg.Group("/users", middleware.RequireGroups(access.GroupUser))
	{
		users.GET("", c.user.GetUsers)
		users.GET("/:id", c.user.GetUser)
		users.PUT("/:id/roles", middleware.RequireRoles(access.UserManager), c.user.UpdateRoles)
		users.PATCH("/:id/active", middleware.RequireRoles(access.UserManager), c.user.SetActive)
	}

	invites := rg.Group("/invites", middleware.RequireRoles(access.UserManager))
	{
		invites.POST("", c.invite.CreateInvite)
		invites.GET("", c.invite.ListInvites)
		invites.PUT("/:id/roles", c.invite.UpdateInviteRoles)
		invites.DELETE("/:id", c.invite.DeleteInvite)
	}
}

func (a *App) registerLocationRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/cities", c.location.ListCities)
	rg.GET("/cities/:id/administrative-units", c.location.ListAdministrativeUnits)

	locations := rg.Group("/locations", middleware.RequireGroups(access.GroupPark))
	{
		locations.GET("", c.location.ListLocations)
		locations.GET("/:id", c.location.GetLocation)
		locations.GET("/:id/polygon", c.location.GetPolygon)

		// 管理接口
		locations.POST("", middleware.RequireRoles(access.ParkManager), c.location.CreateLocation)
		locations.PUT("/:id", middleware.RequireRoles(access.ParkManager), c.location.UpdateLocation)
		locations.DELETE("/:id", middleware.RequireRoles(access.ParkManager), c.location.DeleteLocation)
		locations.PUT("/:id/polygon", middleware.RequireRoles(access.ParkManager), c.location.SetPolygon)
		locations.DELETE("/:id/polygon", middleware.RequireRoles(access.ParkManager), c.location.ClearPolygon)
	}
}

func (a *App) registerFormRoutes(rg *gin.RouterGroup, c *controllers) {
	forms := rg.Group("", middleware.RequireGroups(access.GroupForm, access.GroupAssessment))
	{
		forms.GET("/categories", c.form.ListCategories)
		forms.GET("/questions", c.form.ListQuestions)
		forms.GET("/forms", c.form.ListForms)
		forms.GET("/forms/:id", c.form.GetForm)
	}

	manage := rg.Group("", middleware.RequireRoles(access.FormManager))
	{
		manage.POST("/categories", c.form.CreateCategory)
		manage.POST("/categories/:id/subcategories", c.form.CreateSubcategory)
		manage.DELETE("/categories/:id", c.form.DeleteCategory)
		manage.POST("/questions", c.form.CreateQuestion)
		manage.PATCH("/questions/:id/active", c.form.SetQuestionActive)
		manage.POST("/forms", c.form.CreateForm)
		manage.POST("/forms/:id/versions", c.form.CreateVersion)
		manage.PUT("/forms/:id/questions", c.form.SetFormQuestions)
		manage.POST("/forms/:id/calculations", c.form.CreateCalculation)
		manage.DELETE("/forms/:id/calculations/:calculationId", c.form.DeleteCalculation)
	}
}

func (a *App) registerAssessmentRoutes(rg *gin.RouterGroup, c *controllers) {
	assessments := rg.Group("/assessments", middleware.RequireGroups(access.GroupAssessment))
	{
		assessments.POST("", c.assessment.CreateAssessment)
		assessments.GET("", c.assessment.ListAssessments)
		assessments.GET("/:id", c.assessment.GetAssessment)
		assessments.DELETE("/:id", c.assessment.DeleteAssessment)
		assessments.PUT("/:id/responses", c.assessment.SaveResponses)
		assessments.GET("/:id/geometries", c.assessment.GetGeometries)
		assessments.GET("/:id/report", c.assessment.GetReport)
		assessments.GET("/:id/report.pdf", c.assessment.GetReportPDF)
	}
	rg.GET("/reports", middleware.RequireGroups(access.GroupAssessment), c.assessment.GetReports)
}

func (a *App) registerTallyRoutes(rg *gin.RouterGroup, c *controllers) {
	gate := middleware.RequireGroups(access.GroupTally)

	rg.POST("/locations/:id/tallies", gate, c.tally.CreateTally)
	rg.GET("/locations/:id/tallies", gate, c.tally.ListTallies)
	rg.POST("/locations/:id/tallies/:tallyId/people", gate, c.tally.AddPeople)

	tallies := rg.Group("/tallies", gate)
	{
		tallies.GET("/:id", c.tally.GetTally)
		tallies.GET("/:id/summary", c.tally.GetSummary)
		tallies.POST("/:id/finish", c.tally.FinishTally)
		tallies.DELETE("/:id", c.tally.DeleteTally)
	}
}

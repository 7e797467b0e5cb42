package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/assessment-service/internal/config"
	"github.com/brightpath-edu/assessment-service/internal/models"
	"github.com/brightpath-edu/assessment-service/internal/repositories"
	"github.com/brightpath-edu/assessment-service/internal/services"
	"github.com/brightpath-edu/assessment-service/internal/utils"
	"github.com/brightpath-edu/assessment-service/internal/validator"
)

type HandlerManager struct {
	attemptHandler   *AttemptHandler
	analyticsHandler *AnalyticsHandler
	exportHandler    *ExportHandler
	adminHandler     *AdminHandler
	authMiddleware   *CasdoorAuthMiddleware
	serviceManager   services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		attemptHandler:   NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		analyticsHandler: NewAnalyticsHandler(serviceManager.Analytics(), logger),
		exportHandler:    NewExportHandler(serviceManager.Export(), logger),
		adminHandler:     NewAdminHandler(serviceManager.Reconciliation(), serviceManager.Analytics(), logger),
		authMiddleware:   authMiddleware,
		serviceManager:   serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Assessment-scoped attempt routes - all authenticated users
		assessments := v1.Group("/assessments")
		{
			assessments.POST("/:id/start", hm.attemptHandler.StartAttempt)
			assessments.GET("/:id/attempt", hm.attemptHandler.GetActiveAttempt)
			assessments.PUT("/:id/attempt", hm.attemptHandler.SubmitAnswer)
			assessments.POST("/:id/complete", hm.attemptHandler.CompleteAttempt)
			assessments.POST("/:id/abandon", hm.attemptHandler.AbandonAttempt)

			// Reporting - Teachers and Admins only
			assessments.GET("/:id/analytics", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.analyticsHandler.GetAssessmentStats)
			assessments.GET("/:id/results/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.exportHandler.ExportAssessmentResults)
		}

		// Attempt history routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/me/performance", hm.analyticsHandler.GetMyPerformance)
		}

		// Admin routes - Admins only
		admin := v1.Group("/admin")
		admin.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			admin.POST("/reconcile", hm.adminHandler.Reconcile)
			admin.GET("/stats", hm.adminHandler.GetSystemStats)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{
				"status":  "unhealthy",
				"service": "assessment-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "assessment-service",
		})
	})
}

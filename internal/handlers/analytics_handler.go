package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/assessment-service/internal/services"
	"github.com/brightpath-edu/assessment-service/internal/utils"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetAssessmentStats returns aggregate statistics over an assessment's
// completed attempts
// @Summary Get assessment statistics
// @Description Returns attempt counts, average score and pass rate for an assessment
// @Tags analytics
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} models.AssessmentStats
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/analytics [get]
func (h *AnalyticsHandler) GetAssessmentStats(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	stats, err := h.analyticsService.GetAssessmentStats(c.Request.Context(), assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetMyPerformance returns the caller's cross-assessment performance rollup
// @Summary Get own performance
// @Description Returns the caller's performance across completed attempts, with topic and subject breakdowns
// @Tags analytics
// @Produce json
// @Success 200 {object} models.UserPerformance
// @Failure 404 {object} ErrorResponse
// @Router /users/me/performance [get]
func (h *AnalyticsHandler) GetMyPerformance(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	performance, err := h.analyticsService.GetUserPerformance(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, performance)
}

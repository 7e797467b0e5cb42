package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/assessment-service/internal/services"
	"github.com/brightpath-edu/assessment-service/internal/utils"
)

type AdminHandler struct {
	BaseHandler
	reconciliationService services.ReconciliationService
	analyticsService      services.AnalyticsService
}

func NewAdminHandler(
	reconciliationService services.ReconciliationService,
	analyticsService services.AnalyticsService,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:           NewBaseHandler(logger),
		reconciliationService: reconciliationService,
		analyticsService:      analyticsService,
	}
}

// Reconcile sweeps completed attempts whose score never reached the owning
// user's academic counters and applies them
// @Summary Run score reconciliation
// @Description Repairs completed attempts missing a score application
// @Tags admin
// @Produce json
// @Success 200 {object} models.ReconciliationResult
// @Failure 500 {object} ErrorResponse
// @Router /admin/reconcile [post]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	h.LogRequest(c, "Running score reconciliation")

	result, err := h.reconciliationService.Run(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSystemStats returns platform-wide attempt statistics
// @Summary Get system statistics
// @Description Returns total, in-progress and completed attempt counts with average score and pass rate
// @Tags admin
// @Produce json
// @Success 200 {object} models.SystemStats
// @Failure 500 {object} ErrorResponse
// @Router /admin/stats [get]
func (h *AdminHandler) GetSystemStats(c *gin.Context) {
	stats, err := h.analyticsService.GetSystemStats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-edu/assessment-service/internal/models"
	"github.com/brightpath-edu/assessment-service/internal/services"
	"github.com/brightpath-edu/assessment-service/internal/utils"
	"github.com/brightpath-edu/assessment-service/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *validator.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *validator.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// StartAttempt starts a new attempt on an assessment, or resumes the caller's
// in-progress one
// @Summary Start assessment attempt
// @Description Starts a new attempt, resuming the existing in-progress attempt if one exists
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} models.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Starting assessment attempt", "assessment_id", assessmentID, "user_id", userID)

	attempt, err := h.attemptService.Start(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetActiveAttempt returns the caller's in-progress attempt on an assessment
// @Summary Get active attempt
// @Description Returns the caller's in-progress attempt for the assessment
// @Tags attempts
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} models.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/attempt [get]
func (h *AttemptHandler) GetActiveAttempt(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	attempt, err := h.attemptService.GetActive(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// SubmitAnswer records an answer on the caller's in-progress attempt.
// Resubmitting the same question index overwrites the previous answer.
// @Summary Submit answer
// @Description Grades and records an answer for one question of the active attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param answer body models.SubmitAnswerRequest true "Answer data"
// @Success 200 {object} models.SubmitAnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessments/{id}/attempt [put]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	var req models.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	result, err := h.attemptService.SubmitAnswer(c.Request.Context(), assessmentID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CompleteAttempt finalizes the caller's in-progress attempt
// @Summary Complete attempt
// @Description Scores the active attempt and folds the result into the user's academic record
// @Tags attempts
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} models.CompleteAttemptResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessments/{id}/complete [post]
func (h *AttemptHandler) CompleteAttempt(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Completing assessment attempt", "assessment_id", assessmentID, "user_id", userID)

	result, err := h.attemptService.Complete(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AbandonAttempt abandons the caller's in-progress attempt without scoring it
// @Summary Abandon attempt
// @Description Marks the active attempt abandoned; no score is recorded
// @Tags attempts
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/abandon [post]
func (h *AttemptHandler) AbandonAttempt(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Abandoning assessment attempt", "assessment_id", assessmentID, "user_id", userID)

	if err := h.attemptService.Abandon(c.Request.Context(), assessmentID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt abandoned",
	})
}

// GetAttempt retrieves an attempt by ID
// @Summary Get attempt
// @Description Retrieves an attempt by its ID; students only see their own
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.AttemptResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	userID := h.getUserID(c)
	role, err := GetUserRoleFromContext(c)
	if userID == "" || err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), attemptID, userID, role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// ListAttempts lists attempts with pagination. Students are scoped to their
// own history regardless of filters.
// @Summary List attempts
// @Description Lists attempts with optional assessment and status filters
// @Tags attempts
// @Produce json
// @Param assessment_id query uint false "Assessment ID"
// @Param status query string false "Attempt status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.AttemptListResponse
// @Failure 400 {object} ErrorResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	var req models.AttemptListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	role, err := GetUserRoleFromContext(c)
	if userID == "" || err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	result, err := h.attemptService.List(c.Request.Context(), &req, userID, role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

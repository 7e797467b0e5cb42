package services

import (
	"context"

	"github.com/brightpath-edu/assessment-service/internal/models"
)

// ===== SERVICE INTERFACES =====

// AttemptService drives the attempt lifecycle: eligibility, start, answer
// submission, completion and abandonment. Operations are keyed by assessment
// because a user has at most one in-progress attempt per assessment.
type AttemptService interface {
	// CanStart returns nil when the user may start a new attempt, or the
	// sentinel describing why not (ErrAssessmentNotActive,
	// ErrAttemptLimitExceeded, ErrAttemptAlreadyActive).
	CanStart(ctx context.Context, assessmentID uint, userID string) error

	Start(ctx context.Context, assessmentID uint, userID string) (*models.AttemptResponse, error)
	GetActive(ctx context.Context, assessmentID uint, userID string) (*models.AttemptResponse, error)
	SubmitAnswer(ctx context.Context, assessmentID uint, userID string, req *models.SubmitAnswerRequest) (*models.SubmitAnswerResponse, error)
	Complete(ctx context.Context, assessmentID uint, userID string) (*models.CompleteAttemptResponse, error)
	Abandon(ctx context.Context, assessmentID uint, userID string) error

	// History access. Students see only their own attempts; teachers and
	// admins see everything.
	GetByID(ctx context.Context, attemptID uint, userID string, role models.UserRole) (*models.AttemptResponse, error)
	List(ctx context.Context, req *models.AttemptListRequest, userID string, role models.UserRole) (*models.AttemptListResponse, error)
}

// AnalyticsService computes per-attempt summaries at completion time and
// read-side rollups over completed attempts.
type AnalyticsService interface {
	// BuildAttemptAnalytics aggregates one attempt's snapshot, joining the
	// live question records by ID for topic and difficulty classification.
	BuildAttemptAnalytics(ctx context.Context, questions []models.AttemptQuestion) (*models.AttemptAnalytics, error)

	GetAssessmentStats(ctx context.Context, assessmentID uint) (*models.AssessmentStats, error)
	GetUserPerformance(ctx context.Context, userID string) (*models.UserPerformance, error)
	GetSystemStats(ctx context.Context) (*models.SystemStats, error)
}

// ReconciliationService repairs completed attempts whose score was never
// folded into the owning user's academic counters.
type ReconciliationService interface {
	Run(ctx context.Context) (*models.ReconciliationResult, error)
}

// ExportService renders reporting artifacts for teachers and admins.
type ExportService interface {
	// ExportAssessmentResults returns the Excel workbook content and a
	// suggested file name.
	ExportAssessmentResults(ctx context.Context, assessmentID uint) ([]byte, string, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Attempt() AttemptService
	Grading() GradingService
	Analytics() AnalyticsService
	Reconciliation() ReconciliationService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

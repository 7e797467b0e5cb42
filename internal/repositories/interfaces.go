package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/brightpath-edu/assessment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Type       *models.QuestionType    `json:"type"`
	Status     *models.QuestionStatus  `json:"status"`
	Subject    *string                 `json:"subject"`
	Topic      *string                 `json:"topic"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	CreatedBy  *string                 `json:"created_by"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`
	SortOrder  string                  `json:"sort_order"` // "asc", "desc"
}

type AssessmentFilters struct {
	Status    *models.AssessmentStatus `json:"status"`
	Subject   *string                  `json:"subject"`
	CreatedBy *string                  `json:"created_by"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`
	SortOrder string                   `json:"sort_order"`
}

type AttemptFilters struct {
	Status       *models.AttemptStatus `json:"status"`
	UserID       *string               `json:"user_id"`
	AssessmentID *uint                 `json:"assessment_id"`
	DateFrom     *time.Time            `json:"date_from"`
	DateTo       *time.Time            `json:"date_to"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	SortBy       string                `json:"sort_by"`
	SortOrder    string                `json:"sort_order"`
}

// ===== REPOSITORY INTERFACES =====

// QuestionRepository covers the read-mostly question store. The attempt
// engine consumes questions and never mutates them; the write operations
// exist for the authoring collaborator and for test fixtures.
type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)

	// GetByAssessment returns the assessment's questions in membership
	// order.
	GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error)
}

type AssessmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	// GetByIDWithDetails preloads settings and the ordered question list.
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	// UpdateChecked performs a version-checked update of the full attempt
	// row, bumping Version by one. Returns ErrVersionConflict when the
	// stored version differs from attempt.Version.
	UpdateChecked(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error

	// GetActive returns the single in_progress attempt of (user,
	// assessment), or gorm.ErrRecordNotFound.
	GetActive(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) (*models.Attempt, error)
	CountCompleted(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) (int64, error)

	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.Attempt, int64, error)
	GetCompletedByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Attempt, error)
	GetCompletedByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Attempt, error)

	// GetCompletedWithoutApplication returns completed attempts whose
	// score has not been folded into the owning user's academic counters.
	GetCompletedWithoutApplication(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Attempt, error)

	// GetCompletedMissingAnalytics returns completed attempts whose
	// analytics column was never populated.
	GetCompletedMissingAnalytics(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Attempt, error)
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error)

	// ApplyScore folds one completed attempt's score into the user's
	// academic counters and stamps LastActivity.
	ApplyScore(ctx context.Context, tx *gorm.DB, userID string, score int, at time.Time) (*models.User, error)
}

type ScoreApplicationRepository interface {
	// Create inserts the application row; returns ErrDuplicateKey when the
	// attempt has already been applied.
	Create(ctx context.Context, tx *gorm.DB, application *models.ScoreApplication) error
	Exists(ctx context.Context, tx *gorm.DB, attemptID uint) (bool, error)
	GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.ScoreApplication, error)
}

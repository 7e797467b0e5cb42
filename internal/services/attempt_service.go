package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/brightpath-edu/assessment-service/internal/events"
	"github.com/brightpath-edu/assessment-service/internal/models"
	"github.com/brightpath-edu/assessment-service/internal/repositories"
	"github.com/brightpath-edu/assessment-service/internal/validator"
)

// attemptSaveRetries bounds how often a version-checked save is retried
// before the conflict is surfaced to the caller.
const attemptSaveRetries = 3

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	grading   GradingService
	analytics AnalyticsService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAttemptService(
	repo repositories.Repository,
	db *gorm.DB,
	grading GradingService,
	analytics AnalyticsService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) AttemptService {
	return &attemptService{
		repo:      repo,
		db:        db,
		grading:   grading,
		analytics: analytics,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== ELIGIBILITY =====

func (s *attemptService) CanStart(ctx context.Context, assessmentID uint, userID string) error {
	assessment, err := s.getAssessment(ctx, assessmentID)
	if err != nil {
		return err
	}

	if !assessment.IsStartable() {
		return ErrAssessmentNotActive
	}

	if _, err := s.repo.Attempt().GetActive(ctx, nil, userID, assessmentID); err == nil {
		return ErrAttemptAlreadyActive
	} else if !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to check active attempt: %w", err)
	}

	completed, err := s.repo.Attempt().CountCompleted(ctx, nil, userID, assessmentID)
	if err != nil {
		return fmt.Errorf("failed to count completed attempts: %w", err)
	}
	if completed >= int64(assessment.Settings.MaxAttempts) {
		return ErrAttemptLimitExceeded
	}

	return nil
}

// ===== LIFECYCLE =====

func (s *attemptService) Start(ctx context.Context, assessmentID uint, userID string) (*models.AttemptResponse, error) {
	s.logger.Info("Starting attempt",
		"assessment_id", assessmentID,
		"user_id", userID)

	assessment, err := s.getAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	if !assessment.IsStartable() {
		return nil, ErrAssessmentNotActive
	}

	// A running attempt is resumed, never duplicated.
	if existing, err := s.repo.Attempt().GetActive(ctx, nil, userID, assessmentID); err == nil {
		s.logger.Info("Resuming existing attempt", "attempt_id", existing.ID)
		return s.toAttemptResponse(existing)
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}

	completed, err := s.repo.Attempt().CountCompleted(ctx, nil, userID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed attempts: %w", err)
	}
	if completed >= int64(assessment.Settings.MaxAttempts) {
		return nil, ErrAttemptLimitExceeded
	}

	snapshot, err := buildQuestionSnapshot(assessment)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot assessment questions: %w", err)
	}

	attempt := &models.Attempt{
		AssessmentID:  assessmentID,
		UserID:        userID,
		Status:        models.AttemptInProgress,
		StartedAt:     time.Now(),
		AttemptNumber: int(completed) + 1,
		IsAdaptive:    assessment.Difficulty == models.AssessmentAdaptive,
		Version:       1,
	}
	if err := attempt.SetQuestions(snapshot); err != nil {
		return nil, fmt.Errorf("failed to encode question snapshot: %w", err)
	}

	if err := s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// Lost a concurrent start race; the winner's attempt is the one
			// the caller resumes.
			winner, gerr := s.repo.Attempt().GetActive(ctx, nil, userID, assessmentID)
			if gerr != nil {
				return nil, fmt.Errorf("failed to load concurrent attempt: %w", gerr)
			}
			return s.toAttemptResponse(winner)
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID,
		"attempt_number", attempt.AttemptNumber)

	timeLimit := assessment.Settings.TimeLimitMinutes
	s.publish(ctx, events.NewAttemptStartedEvent(
		attempt.ID, assessmentID, assessment.Title, userID,
		attempt.AttemptNumber, attempt.StartedAt, &timeLimit))

	return s.toAttemptResponse(attempt)
}

func (s *attemptService) GetActive(ctx context.Context, assessmentID uint, userID string) (*models.AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetActive(ctx, nil, userID, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNoActiveAttempt
		}
		return nil, fmt.Errorf("failed to get active attempt: %w", err)
	}
	return s.toAttemptResponse(attempt)
}

func (s *attemptService) SubmitAnswer(ctx context.Context, assessmentID uint, userID string, req *models.SubmitAnswerRequest) (*models.SubmitAnswerResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if len(req.UserAnswer) == 0 {
		return nil, ErrAnswerPayloadRequired
	}

	assessment, err := s.getAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	var response *models.SubmitAnswerResponse
	err = s.withVersionRetry(ctx, func() error {
		attempt, err := s.repo.Attempt().GetActive(ctx, nil, userID, assessmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrNoActiveAttempt
			}
			return fmt.Errorf("failed to get active attempt: %w", err)
		}

		if time.Now().After(attempt.Deadline(&assessment.Settings)) {
			return ErrAttemptTimeExpired
		}

		questions, err := attempt.ParsedQuestions()
		if err != nil {
			return fmt.Errorf("failed to decode question snapshot: %w", err)
		}

		idx := *req.QuestionIndex
		if idx < 0 || idx >= len(questions) {
			return ErrInvalidQuestionIndex
		}

		answer, err := models.ParseAnswer(questions[idx].Type, req.UserAnswer)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}

		result := s.grading.Grade(questions[idx].Type, questions[idx].Grading, answer)

		// Resubmitting an index overwrites the previous answer in place.
		q := &questions[idx]
		q.UserAnswer = req.UserAnswer
		q.Answered = true
		q.IsCorrect = result.IsCorrect
		q.PointsAwarded = result.PointsAwarded
		q.TimeSpentSeconds = req.TimeSpent
		q.ExplanationViewed = req.ExplanationViewed

		if err := attempt.SetQuestions(questions); err != nil {
			return fmt.Errorf("failed to encode question snapshot: %w", err)
		}
		if err := s.repo.Attempt().UpdateChecked(ctx, nil, attempt); err != nil {
			return err
		}

		response = &models.SubmitAnswerResponse{
			IsCorrect:     result.IsCorrect,
			PointsAwarded: result.PointsAwarded,
			GradeStatus:   string(result.Status),
			Progress: models.AttemptProgress{
				QuestionsAnswered: countAnswered(questions),
				TotalQuestions:    len(questions),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

func (s *attemptService) Complete(ctx context.Context, assessmentID uint, userID string) (*models.CompleteAttemptResponse, error) {
	s.logger.Info("Completing attempt",
		"assessment_id", assessmentID,
		"user_id", userID)

	var completed *models.Attempt
	var userAfter *models.User

	err := s.withVersionRetry(ctx, func() error {
		attempt, err := s.repo.Attempt().GetActive(ctx, nil, userID, assessmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrNoActiveAttempt
			}
			return fmt.Errorf("failed to get active attempt: %w", err)
		}

		questions, err := attempt.ParsedQuestions()
		if err != nil {
			return fmt.Errorf("failed to decode question snapshot: %w", err)
		}

		now := time.Now()
		finalizeScoring(attempt, questions, now)

		analytics, err := s.analytics.BuildAttemptAnalytics(ctx, questions)
		if err != nil {
			// Completion must not fail because an analytics read did.
			s.logger.Error("Failed to build attempt analytics",
				"error", err,
				"attempt_id", attempt.ID)
		} else if err := attempt.SetAnalytics(analytics); err != nil {
			return fmt.Errorf("failed to encode analytics: %w", err)
		}

		// The attempt update, the application ledger row and the user
		// counters commit or roll back together.
		txErr := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
			if err := s.repo.Attempt().UpdateChecked(ctx, tx, attempt); err != nil {
				return err
			}

			application := &models.ScoreApplication{
				AttemptID: attempt.ID,
				UserID:    userID,
				Score:     attempt.Score,
				AppliedAt: now,
			}
			if err := s.repo.ScoreApplication().Create(ctx, tx, application); err != nil {
				if errors.Is(err, repositories.ErrDuplicateKey) {
					// Already folded in; never double count.
					user, gerr := s.repo.User().GetByID(ctx, tx, userID)
					if gerr != nil {
						return fmt.Errorf("failed to load user: %w", gerr)
					}
					userAfter = user
					return nil
				}
				return err
			}

			user, err := s.repo.User().ApplyScore(ctx, tx, userID, attempt.Score, now)
			if err != nil {
				return fmt.Errorf("failed to apply score to user: %w", err)
			}
			userAfter = user
			return nil
		})
		if txErr != nil {
			return txErr
		}

		completed = attempt
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoActiveAttempt) {
			// Completing twice returns the finalized attempt unchanged.
			return s.latestCompleted(ctx, assessmentID, userID)
		}
		return nil, err
	}

	s.logger.Info("Attempt completed",
		"attempt_id", completed.ID,
		"score", completed.Score,
		"points_awarded", completed.PointsAwarded,
		"total_points", completed.TotalPoints)

	s.publish(ctx, events.NewAttemptCompletedEvent(
		completed.ID, assessmentID, userID, *completed.CompletedAt,
		completed.Score, completed.TotalPoints, completed.PointsAwarded,
		completed.TimeTakenSeconds))
	s.publish(ctx, events.NewUserAcademicUpdatedEvent(
		userAfter.ID, userAfter.TotalAssessments, userAfter.TotalScore,
		userAfter.AverageScore, *userAfter.LastActivity))

	analytics, err := completed.ParsedAnalytics()
	if err != nil {
		return nil, fmt.Errorf("failed to decode attempt analytics: %w", err)
	}

	return &models.CompleteAttemptResponse{
		Attempt:   completed,
		UserScore: toScoreSummary(userAfter),
		Analytics: analytics,
	}, nil
}

func (s *attemptService) Abandon(ctx context.Context, assessmentID uint, userID string) error {
	var abandoned *models.Attempt

	err := s.withVersionRetry(ctx, func() error {
		attempt, err := s.repo.Attempt().GetActive(ctx, nil, userID, assessmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrNoActiveAttempt
			}
			return fmt.Errorf("failed to get active attempt: %w", err)
		}

		// Terminal and scoreless: no totals, no user counter changes.
		attempt.Status = models.AttemptAbandoned
		if err := s.repo.Attempt().UpdateChecked(ctx, nil, attempt); err != nil {
			return err
		}
		abandoned = attempt
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Attempt abandoned",
		"attempt_id", abandoned.ID,
		"user_id", userID)

	s.publish(ctx, events.NewAttemptAbandonedEvent(
		abandoned.ID, assessmentID, userID, time.Now(), "user_abandoned"))
	return nil
}

// ===== HISTORY =====

func (s *attemptService) GetByID(ctx context.Context, attemptID uint, userID string, role models.UserRole) (*models.AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.UserID != userID && role != models.RoleTeacher && role != models.RoleAdmin {
		return nil, NewPermissionError(userID, attemptID, "attempt", "read", "not owned by user")
	}

	return s.toAttemptResponse(attempt)
}

func (s *attemptService) List(ctx context.Context, req *models.AttemptListRequest, userID string, role models.UserRole) (*models.AttemptListResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	filters := repositories.AttemptFilters{
		Status:       req.Status,
		AssessmentID: req.AssessmentID,
		Limit:        pageSize,
		Offset:       (page - 1) * pageSize,
		SortBy:       "started_at",
		SortOrder:    "desc",
	}

	// Students only ever see their own history.
	if role != models.RoleTeacher && role != models.RoleAdmin {
		filters.UserID = &userID
	}

	attempts, total, err := s.repo.Attempt().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	out := make([]models.Attempt, len(attempts))
	for i, a := range attempts {
		out[i] = *a
	}

	return &models.AttemptListResponse{
		Attempts: out,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/brightpath-edu/assessment-service/internal/events"
	"github.com/brightpath-edu/assessment-service/internal/models"
	"github.com/brightpath-edu/assessment-service/internal/repositories"
)

func (s *attemptService) getAssessment(ctx context.Context, assessmentID uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return assessment, nil
}

// buildQuestionSnapshot freezes the assessment's ordered questions, including
// the grading content, onto a new attempt. Later question edits leave the
// snapshot untouched.
func buildQuestionSnapshot(assessment *models.Assessment) ([]models.AttemptQuestion, error) {
	snapshot := make([]models.AttemptQuestion, 0, len(assessment.Questions))
	for _, aq := range assessment.Questions {
		question := aq.Question

		grading := models.GradingSnapshot{}
		if question.HasOptions() {
			texts, err := question.CorrectOptionTexts()
			if err != nil {
				return nil, fmt.Errorf("question %d has malformed options: %w", question.ID, err)
			}
			grading.CorrectOptionTexts = texts
		} else if question.CorrectAnswer != nil {
			grading.CorrectAnswer = *question.CorrectAnswer
		}

		snapshot = append(snapshot, models.AttemptQuestion{
			QuestionID: question.ID,
			Type:       question.Type,
			Topic:      question.Topic,
			Difficulty: question.Difficulty,
			Points:     aq.Points,
			Grading:    grading,
		})
	}
	return snapshot, nil
}

// finalizeScoring derives the attempt totals from the graded snapshot. Every
// question contributes one point to the total; unanswered and pending
// questions contribute zero to the awarded count.
func finalizeScoring(attempt *models.Attempt, questions []models.AttemptQuestion, now time.Time) {
	totalPoints := len(questions)
	pointsAwarded := 0
	timeTaken := 0
	for _, q := range questions {
		if q.IsCorrect {
			pointsAwarded++
		}
		timeTaken += q.TimeSpentSeconds
	}

	score := 0
	if totalPoints > 0 {
		score = int(math.Round(float64(pointsAwarded) / float64(totalPoints) * 100))
	}

	attempt.Status = models.AttemptCompleted
	attempt.CompletedAt = &now
	attempt.TotalPoints = totalPoints
	attempt.PointsAwarded = pointsAwarded
	attempt.Score = score
	attempt.TimeTakenSeconds = timeTaken
}

func countAnswered(questions []models.AttemptQuestion) int {
	answered := 0
	for _, q := range questions {
		if q.Answered {
			answered++
		}
	}
	return answered
}

// withVersionRetry re-runs fn while its version-checked save loses to a
// concurrent writer. fn must re-read the attempt on every run.
func (s *attemptService) withVersionRetry(ctx context.Context, fn func() error) error {
	for i := 0; i < attemptSaveRetries; i++ {
		err := fn()
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return err
		}
		s.logger.WarnContext(ctx, "Attempt version conflict, retrying", "retry", i+1)
	}
	return ErrConcurrencyConflict
}

// toAttemptResponse shapes an attempt for the caller. Grading content never
// leaves the server; correctness per question is withheld while the attempt
// is still running.
func (s *attemptService) toAttemptResponse(attempt *models.Attempt) (*models.AttemptResponse, error) {
	questions, err := attempt.ParsedQuestions()
	if err != nil {
		return nil, fmt.Errorf("failed to decode question snapshot: %w", err)
	}

	showResults := attempt.Status == models.AttemptCompleted

	views := make([]models.AttemptQuestionView, len(questions))
	for i, q := range questions {
		view := models.AttemptQuestionView{
			QuestionID:        q.QuestionID,
			Type:              q.Type,
			Topic:             q.Topic,
			Difficulty:        q.Difficulty,
			Points:            q.Points,
			UserAnswer:        q.UserAnswer,
			Answered:          q.Answered,
			TimeSpentSeconds:  q.TimeSpentSeconds,
			ExplanationViewed: q.ExplanationViewed,
		}
		if showResults {
			isCorrect := q.IsCorrect
			view.IsCorrect = &isCorrect
		}
		views[i] = view
	}

	response := &models.AttemptResponse{
		Attempt:   attempt,
		Questions: views,
	}
	if showResults {
		analytics, err := attempt.ParsedAnalytics()
		if err != nil {
			return nil, fmt.Errorf("failed to decode attempt analytics: %w", err)
		}
		response.Analytics = analytics
	}
	return response, nil
}

func toScoreSummary(user *models.User) models.UserScoreSummary {
	return models.UserScoreSummary{
		TotalAssessments: user.TotalAssessments,
		TotalScore:       user.TotalScore,
		AverageScore:     user.AverageScore,
		LastActivity:     user.LastActivity,
	}
}

// latestCompleted serves repeat completion calls: the most recent completed
// attempt for (user, assessment) is returned with unchanged totals.
func (s *attemptService) latestCompleted(ctx context.Context, assessmentID uint, userID string) (*models.CompleteAttemptResponse, error) {
	status := models.AttemptCompleted
	attempts, _, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{
		Status:       &status,
		UserID:       &userID,
		AssessmentID: &assessmentID,
		Limit:        1,
		SortBy:       "completed_at",
		SortOrder:    "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list completed attempts: %w", err)
	}
	if len(attempts) == 0 {
		return nil, ErrNoActiveAttempt
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	analytics, err := attempts[0].ParsedAnalytics()
	if err != nil {
		return nil, fmt.Errorf("failed to decode attempt analytics: %w", err)
	}

	return &models.CompleteAttemptResponse{
		Attempt:   attempts[0],
		UserScore: toScoreSummary(user),
		Analytics: analytics,
	}, nil
}

// publish sends a lifecycle event, logging instead of failing the operation
// when the broker is unavailable.
func (s *attemptService) publish(ctx context.Context, event *events.AttemptEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAttemptEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish attempt event",
			"error", err,
			"event_type", event.Type)
	}
}

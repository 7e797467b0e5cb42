package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/brightpath-edu/assessment-service/internal/models"
	"github.com/brightpath-edu/assessment-service/internal/repositories"
)

// reconciliationBatchSize bounds one reconciliation sweep.
const reconciliationBatchSize = 500

// reconciliationService repairs the completion saga. A completed attempt
// whose score_applications row is missing never reached the user's academic
// counters, so the counters are applied now, exactly once. A completed
// attempt whose analytics column stayed empty (the question fetch failed at
// completion) gets its analytics rebuilt.
type reconciliationService struct {
	repo      repositories.Repository
	analytics AnalyticsService
	logger    *slog.Logger
}

func NewReconciliationService(repo repositories.Repository, analytics AnalyticsService, logger *slog.Logger) ReconciliationService {
	return &reconciliationService{
		repo:      repo,
		analytics: analytics,
		logger:    logger,
	}
}

func (s *reconciliationService) Run(ctx context.Context) (*models.ReconciliationResult, error) {
	result := &models.ReconciliationResult{}

	if err := s.repairApplications(ctx, result); err != nil {
		return nil, err
	}
	if err := s.backfillAnalytics(ctx, result); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Reconciliation finished",
		"scanned", result.Scanned,
		"repaired", result.Repaired,
		"analytics_rebuilt", result.AnalyticsRebuilt,
		"failed", result.Failed)

	return result, nil
}

func (s *reconciliationService) repairApplications(ctx context.Context, result *models.ReconciliationResult) error {
	attempts, err := s.repo.Attempt().GetCompletedWithoutApplication(ctx, nil, reconciliationBatchSize)
	if err != nil {
		return fmt.Errorf("failed to scan for unapplied completions: %w", err)
	}

	result.Scanned = len(attempts)
	if len(attempts) == 0 {
		return nil
	}

	s.logger.InfoContext(ctx, "Reconciling unapplied completions", "count", len(attempts))

	for _, attempt := range attempts {
		if err := s.apply(ctx, attempt); err != nil {
			result.Failed++
			s.logger.ErrorContext(ctx, "Failed to reconcile attempt",
				"attempt_id", attempt.ID,
				"user_id", attempt.UserID,
				"error", err)
			continue
		}
		result.Repaired++
		result.Details = append(result.Details, attempt.ID)
	}
	return nil
}

// apply folds one missed completion into the user counters. The ledger row's
// primary key makes a concurrent repair of the same attempt a no-op.
func (s *reconciliationService) apply(ctx context.Context, attempt *models.Attempt) error {
	return s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		application := &models.ScoreApplication{
			AttemptID: attempt.ID,
			UserID:    attempt.UserID,
			Score:     attempt.Score,
			AppliedAt: *attempt.CompletedAt,
		}
		if err := s.repo.ScoreApplication().Create(ctx, tx, application); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return nil
			}
			return err
		}

		_, err := s.repo.User().ApplyScore(ctx, tx, attempt.UserID, attempt.Score, *attempt.CompletedAt)
		return err
	})
}

func (s *reconciliationService) backfillAnalytics(ctx context.Context, result *models.ReconciliationResult) error {
	attempts, err := s.repo.Attempt().GetCompletedMissingAnalytics(ctx, nil, reconciliationBatchSize)
	if err != nil {
		return fmt.Errorf("failed to scan for missing analytics: %w", err)
	}
	if len(attempts) == 0 {
		return nil
	}

	s.logger.InfoContext(ctx, "Backfilling attempt analytics", "count", len(attempts))

	for _, attempt := range attempts {
		if err := s.rebuildAnalytics(ctx, attempt); err != nil {
			result.Failed++
			s.logger.ErrorContext(ctx, "Failed to backfill attempt analytics",
				"attempt_id", attempt.ID,
				"error", err)
			continue
		}
		result.AnalyticsRebuilt++
	}
	return nil
}

func (s *reconciliationService) rebuildAnalytics(ctx context.Context, attempt *models.Attempt) error {
	questions, err := attempt.ParsedQuestions()
	if err != nil {
		return fmt.Errorf("failed to decode question snapshot: %w", err)
	}

	analytics, err := s.analytics.BuildAttemptAnalytics(ctx, questions)
	if err != nil {
		return err
	}
	if err := attempt.SetAnalytics(analytics); err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}

	return s.repo.Attempt().UpdateChecked(ctx, nil, attempt)
}

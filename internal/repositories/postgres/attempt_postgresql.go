package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/brightpath-edu/assessment-service/internal/cache"
	"github.com/brightpath-edu/assessment-service/internal/models"
	"github.com/brightpath-edu/assessment-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAttemptPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(attempt).Error; err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	cache.InvalidateAttemptCache(ctx, a.cacheManager, attempt.ID, attempt.UserID, attempt.AssessmentID)
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	db := a.getDB(tx)
	var attempt models.Attempt
	if err := db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// UpdateChecked writes the full attempt row guarded by the version read by
// the caller. The stored version is bumped by one; a concurrent writer that
// got there first makes the WHERE clause match nothing.
func (a *AttemptPostgreSQL) UpdateChecked(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	db := a.getDB(tx)

	readVersion := attempt.Version
	result := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND version = ?", attempt.ID, readVersion).
		Updates(map[string]interface{}{
			"status":                 attempt.Status,
			"questions":              attempt.Questions,
			"score":                  attempt.Score,
			"total_points":           attempt.TotalPoints,
			"points_awarded":         attempt.PointsAwarded,
			"completed_at":           attempt.CompletedAt,
			"time_taken_seconds":     attempt.TimeTakenSeconds,
			"difficulty_adjustments": attempt.DifficultyAdjustments,
			"analytics":              attempt.Analytics,
			"version":                readVersion + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrVersionConflict
	}

	attempt.Version = readVersion + 1
	cache.InvalidateAttemptCache(ctx, a.cacheManager, attempt.ID, attempt.UserID, attempt.AssessmentID)
	return nil
}

func (a *AttemptPostgreSQL) GetActive(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) (*models.Attempt, error) {
	db := a.getDB(tx)
	var attempt models.Attempt
	if err := db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ? AND status = ?", userID, assessmentID, models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) CountCompleted(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) (int64, error) {
	db := a.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("user_id = ? AND assessment_id = ? AND status = ?", userID, assessmentID, models.AttemptCompleted).
		Count(&count).Error
	return count, err
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	db := a.getDB(tx)
	var attempts []*models.Attempt
	var total int64

	query := db.WithContext(ctx).Model(&models.Attempt{})
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetCompletedByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Attempt, error) {
	db := a.getDB(tx)
	var attempts []*models.Attempt
	if err := db.WithContext(ctx).
		Where("assessment_id = ? AND status = ?", assessmentID, models.AttemptCompleted).
		Order("completed_at ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get completed attempts by assessment: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) GetCompletedByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Attempt, error) {
	db := a.getDB(tx)
	var attempts []*models.Attempt
	if err := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.AttemptCompleted).
		Order("completed_at ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get completed attempts by user: %w", err)
	}
	return attempts, nil
}

// GetCompletedWithoutApplication finds completed attempts missing their
// score_applications row, i.e. completions whose user-counter update was
// lost mid-flight.
func (a *AttemptPostgreSQL) GetCompletedWithoutApplication(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Attempt, error) {
	db := a.getDB(tx)
	var attempts []*models.Attempt

	query := db.WithContext(ctx).
		Joins("LEFT JOIN score_applications sa ON sa.attempt_id = attempts.id").
		Where("attempts.status = ? AND sa.attempt_id IS NULL", models.AttemptCompleted).
		Order("attempts.completed_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get unapplied completed attempts: %w", err)
	}
	return attempts, nil
}

// GetCompletedMissingAnalytics finds completed attempts whose analytics
// column was never written, e.g. because the question fetch failed during
// completion.
func (a *AttemptPostgreSQL) GetCompletedMissingAnalytics(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Attempt, error) {
	db := a.getDB(tx)
	var attempts []*models.Attempt

	query := db.WithContext(ctx).
		Where("status = ? AND (analytics IS NULL OR analytics = 'null')", models.AttemptCompleted).
		Order("completed_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get completed attempts missing analytics: %w", err)
	}
	return attempts, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

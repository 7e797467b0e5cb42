package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/brightpath-edu/assessment-service/internal/models"
	"github.com/brightpath-edu/assessment-service/internal/repositories"
)

type ScoreApplicationPostgreSQL struct {
	db *gorm.DB
}

func NewScoreApplicationPostgreSQL(db *gorm.DB) repositories.ScoreApplicationRepository {
	return &ScoreApplicationPostgreSQL{db: db}
}

// Create inserts the application row. The attempt ID primary key turns a
// replay into ErrDuplicateKey instead of a double-count.
func (s *ScoreApplicationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, application *models.ScoreApplication) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(application).Error; err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create score application: %w", err)
	}
	return nil
}

func (s *ScoreApplicationPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, attemptID uint) (bool, error) {
	db := s.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.ScoreApplication{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *ScoreApplicationPostgreSQL) GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.ScoreApplication, error) {
	db := s.getDB(tx)
	var application models.ScoreApplication
	if err := db.WithContext(ctx).Where("attempt_id = ?", attemptID).First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get score application: %w", err)
	}
	return &application, nil
}

func (s *ScoreApplicationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/brightpath-edu/assessment-service/internal/config"
	"github.com/brightpath-edu/assessment-service/internal/models"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.Assessment{},
		&models.AssessmentSettings{},
		&models.AssessmentQuestion{},
		&models.Attempt{},
		&models.ScoreApplication{},
	); err != nil {
		return err
	}

	// At most one in-progress attempt per user and assessment. AutoMigrate
	// cannot express a partial index, so it is created directly.
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_attempts_active_unique
		ON attempts (user_id, assessment_id)
		WHERE status = 'in_progress'
	`).Error
}

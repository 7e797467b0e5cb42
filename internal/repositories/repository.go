package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates the per-entity repositories behind one interface so
// services depend on a single wiring point.
type Repository interface {
	Question() QuestionRepository
	Assessment() AssessmentRepository
	Attempt() AttemptRepository
	User() UserRepository
	ScoreApplication() ScoreApplicationRepository

	// WithTransaction runs fn inside one database transaction; repository
	// methods called with the provided tx participate in it.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// Sentinel errors shared by the repository implementations.
var (
	// ErrVersionConflict is returned by version-checked updates when the
	// row's stored version no longer matches the one read.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicateKey is returned when an insert violates a unique
	// constraint.
	ErrDuplicateKey = errors.New("duplicate key")
)

// IsNotFoundError reports whether err means the requested row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

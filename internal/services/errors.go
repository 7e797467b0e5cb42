package services

import (
	"errors"
	"fmt"

	"github.com/brightpath-edu/assessment-service/internal/validator"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrValidationFailed = errors.New("validation failed")

	// Assessment specific errors
	ErrAssessmentNotFound  = errors.New("assessment not found")
	ErrAssessmentNotActive = errors.New("assessment is not active")

	// Attempt specific errors
	ErrAttemptNotFound       = errors.New("attempt not found")
	ErrNoActiveAttempt       = errors.New("no in-progress attempt for this assessment")
	ErrAttemptNotActive      = errors.New("attempt is not in progress")
	ErrAttemptLimitExceeded  = errors.New("maximum attempts exceeded")
	ErrAttemptAlreadyActive  = errors.New("an attempt is already in progress")
	ErrAttemptTimeExpired    = errors.New("attempt time limit has elapsed")
	ErrInvalidQuestionIndex  = errors.New("question index out of range")
	ErrConcurrencyConflict   = errors.New("attempt was modified concurrently")
	ErrAnswerPayloadRequired = errors.New("answer payload is required")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)

// ===== CUSTOM ERROR TYPES =====

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssessmentNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrNoActiveAttempt) ||
		errors.Is(err, ErrUserNotFound)
}

// IsIneligible checks if error represents an eligibility denial
func IsIneligible(err error) bool {
	return errors.Is(err, ErrAssessmentNotActive) ||
		errors.Is(err, ErrAttemptLimitExceeded) ||
		errors.Is(err, ErrAttemptAlreadyActive)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInvalidQuestionIndex) ||
		errors.Is(err, ErrAnswerPayloadRequired) ||
		errors.Is(err, ErrAttemptTimeExpired) ||
		errors.Is(err, ErrAttemptNotActive) {
		return true
	}
	var ves validator.ValidationErrors
	return errors.As(err, &ves)
}

// IsConflict checks if error represents a concurrency conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsPermission checks if error represents a permission denial
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

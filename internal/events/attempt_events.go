package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of attempt lifecycle events
type EventType string

const (
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptCompleted EventType = "attempt.completed"
	EventAttemptAbandoned EventType = "attempt.abandoned"

	EventUserAcademicUpdated EventType = "user.academic_updated"
)

// AttemptEvent is the base event structure published for every lifecycle transition
type AttemptEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Attempt event payloads

type AttemptStartedEvent struct {
	AttemptID        uint      `json:"attempt_id"`
	AssessmentID     uint      `json:"assessment_id"`
	AssessmentTitle  string    `json:"assessment_title"`
	UserID           string    `json:"user_id"`
	AttemptNumber    int       `json:"attempt_number"`
	StartedAt        time.Time `json:"started_at"`
	TimeLimitMinutes *int      `json:"time_limit_minutes,omitempty"`
}

type AttemptCompletedEvent struct {
	AttemptID     uint      `json:"attempt_id"`
	AssessmentID  uint      `json:"assessment_id"`
	UserID        string    `json:"user_id"`
	CompletedAt   time.Time `json:"completed_at"`
	Score         int       `json:"score"`
	TotalPoints   int       `json:"total_points"`
	PointsAwarded int       `json:"points_awarded"`
	TimeTaken     int       `json:"time_taken_seconds"`
}

type AttemptAbandonedEvent struct {
	AttemptID    uint      `json:"attempt_id"`
	AssessmentID uint      `json:"assessment_id"`
	UserID       string    `json:"user_id"`
	AbandonedAt  time.Time `json:"abandoned_at"`
	Reason       string    `json:"reason"`
}

type UserAcademicUpdatedEvent struct {
	UserID           string    `json:"user_id"`
	TotalAssessments int       `json:"total_assessments"`
	TotalScore       int       `json:"total_score"`
	AverageScore     int       `json:"average_score"`
	LastActivity     time.Time `json:"last_activity"`
}

// Event factory functions

func NewAttemptStartedEvent(attemptID, assessmentID uint, title, userID string, attemptNumber int, startedAt time.Time, timeLimitMinutes *int) *AttemptEvent {
	return &AttemptEvent{
		ID:        GenerateEventID(),
		Type:      EventAttemptStarted,
		Timestamp: time.Now(),
		Source:    "assessment-service",
		Version:   "1.0",
		Data: AttemptStartedEvent{
			AttemptID:        attemptID,
			AssessmentID:     assessmentID,
			AssessmentTitle:  title,
			UserID:           userID,
			AttemptNumber:    attemptNumber,
			StartedAt:        startedAt,
			TimeLimitMinutes: timeLimitMinutes,
		},
	}
}

func NewAttemptCompletedEvent(attemptID, assessmentID uint, userID string, completedAt time.Time, score, totalPoints, pointsAwarded, timeTaken int) *AttemptEvent {
	return &AttemptEvent{
		ID:        GenerateEventID(),
		Type:      EventAttemptCompleted,
		Timestamp: time.Now(),
		Source:    "assessment-service",
		Version:   "1.0",
		Data: AttemptCompletedEvent{
			AttemptID:     attemptID,
			AssessmentID:  assessmentID,
			UserID:        userID,
			CompletedAt:   completedAt,
			Score:         score,
			TotalPoints:   totalPoints,
			PointsAwarded: pointsAwarded,
			TimeTaken:     timeTaken,
		},
	}
}

func NewAttemptAbandonedEvent(attemptID, assessmentID uint, userID string, abandonedAt time.Time, reason string) *AttemptEvent {
	return &AttemptEvent{
		ID:        GenerateEventID(),
		Type:      EventAttemptAbandoned,
		Timestamp: time.Now(),
		Source:    "assessment-service",
		Version:   "1.0",
		Data: AttemptAbandonedEvent{
			AttemptID:    attemptID,
			AssessmentID: assessmentID,
			UserID:       userID,
			AbandonedAt:  abandonedAt,
			Reason:       reason,
		},
	}
}

func NewUserAcademicUpdatedEvent(userID string, totalAssessments, totalScore, averageScore int, lastActivity time.Time) *AttemptEvent {
	return &AttemptEvent{
		ID:        GenerateEventID(),
		Type:      EventUserAcademicUpdated,
		Timestamp: time.Now(),
		Source:    "assessment-service",
		Version:   "1.0",
		Data: UserAcademicUpdatedEvent{
			UserID:           userID,
			TotalAssessments: totalAssessments,
			TotalScore:       totalScore,
			AverageScore:     averageScore,
			LastActivity:     lastActivity,
		},
	}
}

// GenerateEventID generates a unique event identifier
func GenerateEventID() string {
	return uuid.NewString()
}

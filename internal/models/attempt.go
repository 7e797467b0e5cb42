package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// Attempt is one student's run through one assessment. The Questions column
// holds an ordered snapshot taken at start time, so later edits to the
// assessment or its questions do not alter in-flight or historical attempts.
// At most one Attempt per (user, assessment) is in_progress, enforced by a
// partial unique index created in the migration step.
type Attempt struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	AssessmentID uint          `json:"assessment_id" gorm:"not null;index:idx_attempt_user_assessment"`
	UserID       string        `json:"user_id" gorm:"not null;size:255;index:idx_attempt_user_assessment"`
	Status       AttemptStatus `json:"status" gorm:"default:in_progress;index"`

	// Ordered per-question snapshot; []AttemptQuestion. Holds the frozen
	// grading content, so it is never serialized; AttemptQuestionView is
	// the outward shape.
	Questions datatypes.JSON `json:"-" gorm:"type:jsonb"`

	// Scoring (derived at completion)
	Score         int `json:"score"` // 0..100
	TotalPoints   int `json:"total_points"`
	PointsAwarded int `json:"points_awarded"`

	// Timing
	StartedAt        time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt      *time.Time `json:"completed_at"`
	TimeTakenSeconds int        `json:"time_taken_seconds"`

	// Metadata
	AttemptNumber         int            `json:"attempt_number" gorm:"not null"`
	IsAdaptive            bool           `json:"is_adaptive" gorm:"default:false"`
	DifficultyAdjustments datatypes.JSON `json:"difficulty_adjustments" gorm:"type:jsonb"`

	// Analytics summary computed at completion; *AttemptAnalytics. Exposed
	// through the response DTOs once the attempt is completed.
	Analytics datatypes.JSON `json:"-" gorm:"type:jsonb"`

	// Optimistic concurrency control
	Version int `json:"version" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment Assessment `json:"-" gorm:"foreignKey:AssessmentID"`
	User       User       `json:"-" gorm:"foreignKey:UserID"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// AttemptQuestion is one entry of the attempt snapshot. Grading content is
// frozen here at start time; Topic and Difficulty are carried for display
// but analytics re-fetches the live Question records by ID.
type AttemptQuestion struct {
	QuestionID uint            `json:"question_id"`
	Type       QuestionType    `json:"type"`
	Topic      string          `json:"topic"`
	Difficulty DifficultyLevel `json:"difficulty"`
	Points     int             `json:"points"`

	Grading GradingSnapshot `json:"grading"`

	UserAnswer        json.RawMessage `json:"user_answer"`
	Answered          bool            `json:"answered"`
	IsCorrect         bool            `json:"is_correct"`
	PointsAwarded     int             `json:"points_awarded"`
	TimeSpentSeconds  int             `json:"time_spent_seconds"`
	ExplanationViewed bool            `json:"explanation_viewed"`
}

// GradingSnapshot freezes the correct-answer definition of a question as it
// stood when the attempt started.
type GradingSnapshot struct {
	CorrectOptionTexts []string `json:"correct_option_texts,omitempty"`
	CorrectAnswer      string   `json:"correct_answer,omitempty"`
}

type DifficultyAdjustment struct {
	AfterQuestionIndex int             `json:"after_question_index"`
	From               DifficultyLevel `json:"from"`
	To                 DifficultyLevel `json:"to"`
	Reason             string          `json:"reason"`
	AdjustedAt         time.Time       `json:"adjusted_at"`
}

// ParsedQuestions decodes the snapshot column.
func (a *Attempt) ParsedQuestions() ([]AttemptQuestion, error) {
	if len(a.Questions) == 0 {
		return nil, nil
	}
	var questions []AttemptQuestion
	if err := json.Unmarshal(a.Questions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// SetQuestions encodes the snapshot back onto the attempt.
func (a *Attempt) SetQuestions(questions []AttemptQuestion) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	a.Questions = datatypes.JSON(data)
	return nil
}

// ParsedAnalytics decodes the analytics column, nil when not yet computed.
func (a *Attempt) ParsedAnalytics() (*AttemptAnalytics, error) {
	if len(a.Analytics) == 0 {
		return nil, nil
	}
	var analytics AttemptAnalytics
	if err := json.Unmarshal(a.Analytics, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

// SetAnalytics encodes the analytics summary onto the attempt.
func (a *Attempt) SetAnalytics(analytics *AttemptAnalytics) error {
	data, err := json.Marshal(analytics)
	if err != nil {
		return err
	}
	a.Analytics = datatypes.JSON(data)
	return nil
}

// IsTerminal reports whether no further state transitions are allowed.
func (a *Attempt) IsTerminal() bool {
	return a.Status == AttemptCompleted || a.Status == AttemptAbandoned
}

// Deadline returns the wall-clock time after which answer submissions are
// rejected, measured from StartedAt.
func (a *Attempt) Deadline(settings *AssessmentSettings) time.Time {
	return a.StartedAt.Add(settings.TimeLimit())
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type AssessmentStatus string

const (
	AssessmentDraft    AssessmentStatus = "draft"
	AssessmentActive   AssessmentStatus = "active"
	AssessmentInactive AssessmentStatus = "inactive"
	AssessmentArchived AssessmentStatus = "archived"
)

type AssessmentDifficulty string

const (
	AssessmentEasy     AssessmentDifficulty = "easy"
	AssessmentMedium   AssessmentDifficulty = "medium"
	AssessmentHard     AssessmentDifficulty = "hard"
	AssessmentAdaptive AssessmentDifficulty = "adaptive"
)

type Assessment struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Title       string           `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string          `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status      AssessmentStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft active inactive archived"`

	// Categorization
	Subject    string               `json:"subject" gorm:"not null;size:100;index" validate:"required,max=100"`
	Topic      string               `json:"topic" gorm:"size:100;index" validate:"omitempty,max=100"`
	Difficulty AssessmentDifficulty `json:"difficulty" gorm:"default:medium" validate:"omitempty,oneof=easy medium hard adaptive"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Settings  AssessmentSettings   `json:"settings" gorm:"foreignKey:AssessmentID"`
	Questions []AssessmentQuestion `json:"questions" gorm:"foreignKey:AssessmentID"`
	Creator   User                 `json:"-" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
}

type AssessmentSettings struct {
	AssessmentID uint      `json:"assessment_id" gorm:"primaryKey;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`

	TimeLimitMinutes       int  `json:"time_limit_minutes" gorm:"not null;default:30" validate:"min=1,max=300"`
	ShuffleQuestions       bool `json:"shuffle_questions" gorm:"not null;default:false"`
	ShuffleAnswers         bool `json:"shuffle_answers" gorm:"not null;default:false"`
	AllowBacktracking      bool `json:"allow_backtracking" gorm:"not null;default:true"`
	ShowResultsImmediately bool `json:"show_results_immediately" gorm:"not null;default:true"`
	PassingScorePercent    int  `json:"passing_score_percent" gorm:"not null;default:60" validate:"min=0,max=100"`
	MaxAttempts            int  `json:"max_attempts" gorm:"not null;default:1" validate:"min=1,max=10"`
}

// AssessmentQuestion is the ordered, weighted membership of a question in
// an assessment. Order is unique and contiguous from 1 within an assessment.
type AssessmentQuestion struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;index;uniqueIndex:idx_assessment_question_order"`
	QuestionID   uint `json:"question_id" gorm:"not null;index"`

	Order  int `json:"order" gorm:"not null;uniqueIndex:idx_assessment_question_order"`
	Points int `json:"points" gorm:"not null;default:1" validate:"min=1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment Assessment `json:"-" gorm:"foreignKey:AssessmentID"`
	Question   Question   `json:"question" gorm:"foreignKey:QuestionID"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (AssessmentSettings) TableName() string {
	return "assessment_settings"
}

func (AssessmentQuestion) TableName() string {
	return "assessment_questions"
}

// IsStartable reports whether new attempts may be created.
func (a *Assessment) IsStartable() bool {
	return a.Status == AssessmentActive
}

// TimeLimit returns the attempt duration as a time.Duration.
func (s *AssessmentSettings) TimeLimit() time.Duration {
	return time.Duration(s.TimeLimitMinutes) * time.Minute
}

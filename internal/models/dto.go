package models

import (
	"encoding/json"
	"time"
)

// ===== REQUESTS =====

type SubmitAnswerRequest struct {
	QuestionIndex     *int            `json:"question_index" validate:"required,min=0"`
	UserAnswer        json.RawMessage `json:"user_answer" validate:"required"`
	TimeSpent         int             `json:"time_spent" validate:"min=0"`
	ExplanationViewed bool            `json:"explanation_viewed"`
}

type AttemptListRequest struct {
	AssessmentID *uint          `form:"assessment_id"`
	Status       *AttemptStatus `form:"status" validate:"omitempty,attempt_status"`
	Page         int            `form:"page" validate:"min=0"`
	PageSize     int            `form:"page_size" validate:"min=0,max=100"`
}

// ===== RESPONSES =====

// AttemptQuestionView is the student-facing snapshot entry. Grading content
// stays server-side.
type AttemptQuestionView struct {
	QuestionID        uint            `json:"question_id"`
	Type              QuestionType    `json:"type"`
	Topic             string          `json:"topic"`
	Difficulty        DifficultyLevel `json:"difficulty"`
	Points            int             `json:"points"`
	UserAnswer        json.RawMessage `json:"user_answer,omitempty"`
	Answered          bool            `json:"answered"`
	IsCorrect         *bool           `json:"is_correct,omitempty"` // withheld until results are shown
	TimeSpentSeconds  int             `json:"time_spent_seconds"`
	ExplanationViewed bool            `json:"explanation_viewed"`
}

type AttemptResponse struct {
	Attempt   *Attempt              `json:"attempt"`
	Questions []AttemptQuestionView `json:"questions"`

	// Present once the attempt is completed.
	Analytics *AttemptAnalytics `json:"analytics,omitempty"`
}

type AttemptProgress struct {
	QuestionsAnswered int `json:"questions_answered"`
	TotalQuestions    int `json:"total_questions"`
}

type SubmitAnswerResponse struct {
	IsCorrect     bool            `json:"is_correct"`
	PointsAwarded int             `json:"points_awarded"`
	GradeStatus   string          `json:"grade_status"`
	Progress      AttemptProgress `json:"progress"`
}

// UserScoreSummary is the user's academic record after a completion has been
// folded in.
type UserScoreSummary struct {
	TotalAssessments int        `json:"total_assessments"`
	TotalScore       int        `json:"total_score"`
	AverageScore     int        `json:"average_score"`
	LastActivity     *time.Time `json:"last_activity"`
}

type CompleteAttemptResponse struct {
	Attempt   *Attempt          `json:"attempt"`
	UserScore UserScoreSummary  `json:"user_score"`
	Analytics *AttemptAnalytics `json:"analytics,omitempty"`
}

type AttemptListResponse struct {
	Attempts []Attempt `json:"attempts"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

type ReconciliationResult struct {
	Scanned          int    `json:"scanned"`
	Repaired         int    `json:"repaired"`
	AnalyticsRebuilt int    `json:"analytics_rebuilt"`
	Failed           int    `json:"failed"`
	Details          []uint `json:"repaired_attempt_ids,omitempty"`
}

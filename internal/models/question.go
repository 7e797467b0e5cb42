package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Matching       QuestionType = "matching"
	Essay          QuestionType = "essay"
)

type QuestionStatus string

const (
	QuestionDraft    QuestionStatus = "draft"
	QuestionActive   QuestionStatus = "active"
	QuestionInactive QuestionStatus = "inactive"
	QuestionReview   QuestionStatus = "review"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type Question struct {
	ID     uint           `json:"id" gorm:"primaryKey"`
	Type   QuestionType   `json:"type" gorm:"not null;index" validate:"required,oneof=multiple_choice true_false short_answer matching essay"`
	Text   string         `json:"text" gorm:"type:text;not null" validate:"required"`
	Status QuestionStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft active inactive review"`

	// Categorization
	Subject    string          `json:"subject" gorm:"not null;size:100;index" validate:"required,max=100"`
	Topic      string          `json:"topic" gorm:"not null;size:100;index" validate:"required,max=100"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"default:medium;index" validate:"omitempty,oneof=easy medium hard"`

	// Options apply to multiple_choice and true_false only; []QuestionOption
	Options datatypes.JSON `json:"options" gorm:"type:jsonb"`

	// CorrectAnswer applies to short_answer and essay only
	CorrectAnswer *string `json:"correct_answer" gorm:"type:text"`

	// Metadata
	Explanation *string   `json:"explanation" gorm:"type:text"`
	CreatedBy   string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Creator User `json:"-" gorm:"foreignKey:CreatedBy"`
}

func (Question) TableName() string {
	return "questions"
}

type QuestionOption struct {
	Text        string  `json:"text" validate:"required"`
	IsCorrect   bool    `json:"is_correct"`
	Explanation *string `json:"explanation"`
}

// ParsedOptions decodes the Options column. Nil and empty both decode to an
// empty slice.
func (q *Question) ParsedOptions() ([]QuestionOption, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var opts []QuestionOption
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// CorrectOptionTexts returns the texts of options marked correct.
func (q *Question) CorrectOptionTexts() ([]string, error) {
	opts, err := q.ParsedOptions()
	if err != nil {
		return nil, err
	}
	var texts []string
	for _, opt := range opts {
		if opt.IsCorrect {
			texts = append(texts, opt.Text)
		}
	}
	return texts, nil
}

// HasOptions reports whether this question type carries an options list.
func (q *Question) HasOptions() bool {
	return q.Type == MultipleChoice || q.Type == TrueFalse
}

// UsableInAssessments reports whether the question may be added to new
// assessments.
func (q *Question) UsableInAssessments() bool {
	return q.Status == QuestionActive
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User mirrors the identity-provider record plus the cumulative academic
// counters this service maintains as attempts complete.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;size:20;default:student;index"`

	// Academic record, updated as a side effect of attempt completion.
	// AverageScore is always round(TotalScore / TotalAssessments).
	TotalAssessments int        `json:"total_assessments" gorm:"not null;default:0"`
	TotalScore       int        `json:"total_score" gorm:"not null;default:0"`
	AverageScore     int        `json:"average_score" gorm:"not null;default:0"`
	LastActivity     *time.Time `json:"last_activity"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// ScoreApplication records that a completed attempt's score has been folded
// into the owning user's academic counters. The attempt ID is the primary
// key, which makes applying a completion idempotent: a second insert for the
// same attempt conflicts instead of double-counting.
type ScoreApplication struct {
	AttemptID uint      `json:"attempt_id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;size:255;index"`
	Score     int       `json:"score" gorm:"not null"`
	AppliedAt time.Time `json:"applied_at" gorm:"not null"`

	Attempt Attempt `json:"-" gorm:"foreignKey:AttemptID"`
	User    User    `json:"-" gorm:"foreignKey:UserID"`
}

func (ScoreApplication) TableName() string {
	return "score_applications"
}

package models

// AttemptAnalytics is the per-attempt summary computed once at completion
// and stored on the attempt.
type AttemptAnalytics struct {
	AccuracyByTopic    []TopicAccuracy    `json:"accuracy_by_topic"`
	TimeAnalysis       TimeAnalysis       `json:"time_analysis"`
	DifficultyAnalysis DifficultyAnalysis `json:"difficulty_analysis"`
}

type TopicAccuracy struct {
	Topic              string `json:"topic"`
	QuestionsAttempted int    `json:"questions_attempted"`
	QuestionsCorrect   int    `json:"questions_correct"`
	Accuracy           int    `json:"accuracy"` // 0..100
}

// TimeAnalysis buckets per-question time: quick <30s, medium 30-90s
// inclusive, slow >90s.
type TimeAnalysis struct {
	AverageTimePerQuestion int              `json:"average_time_per_question"` // seconds
	Distribution           TimeDistribution `json:"distribution"`
}

type TimeDistribution struct {
	Quick  int `json:"quick"`
	Medium int `json:"medium"`
	Slow   int `json:"slow"`
}

type DifficultyAnalysis struct {
	Easy   DifficultyBand `json:"easy"`
	Medium DifficultyBand `json:"medium"`
	Hard   DifficultyBand `json:"hard"`
}

type DifficultyBand struct {
	QuestionsAttempted int `json:"questions_attempted"`
	QuestionsCorrect   int `json:"questions_correct"`
	Accuracy           int `json:"accuracy"` // 0..100
}

// AssessmentStats is a read-side reduction over completed attempts of one
// assessment. Zero-valued for an assessment with no completed attempts.
type AssessmentStats struct {
	AssessmentID      uint    `json:"assessment_id"`
	CompletedAttempts int     `json:"completed_attempts"`
	UniqueStudents    int     `json:"unique_students"`
	AverageScore      int     `json:"average_score"`
	HighestScore      int     `json:"highest_score"`
	LowestScore       int     `json:"lowest_score"`
	PassRate          float64 `json:"pass_rate"` // 0..100
	AverageTimeTaken  int     `json:"average_time_taken"`
}

// UserPerformance summarizes one user's completed attempts across
// assessments.
type UserPerformance struct {
	UserID            string          `json:"user_id"`
	CompletedAttempts int             `json:"completed_attempts"`
	AverageScore      int             `json:"average_score"`
	BestScore         int             `json:"best_score"`
	AccuracyByTopic   []TopicAccuracy `json:"accuracy_by_topic"`
	SubjectBreakdown  []SubjectStats  `json:"subject_breakdown"`
}

type SubjectStats struct {
	Subject           string `json:"subject"`
	CompletedAttempts int    `json:"completed_attempts"`
	AverageScore      int    `json:"average_score"`
}

// SystemStats is the platform-wide rollup used by admin dashboards.
type SystemStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	ActiveAttempts    int     `json:"active_attempts"`
	AverageScore      int     `json:"average_score"`
	PassRate          float64 `json:"pass_rate"`
}

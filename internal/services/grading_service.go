package services

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/brightpath-edu/assessment-service/internal/models"
)

// GradeStatus classifies the outcome of grading one answer.
type GradeStatus string

const (
	GradeCorrect   GradeStatus = "correct"
	GradeIncorrect GradeStatus = "incorrect"
	// GradePending marks answers that need manual grading (essays). They
	// count as incorrect in attempt totals until a manual override path
	// exists.
	GradePending GradeStatus = "pending_manual"
	// GradeUnsupported marks question types with no automatic grading
	// path (matching). Surfaced explicitly instead of silently grading
	// incorrect.
	GradeUnsupported GradeStatus = "unsupported"
)

// GradeResult is the outcome of grading a single answer. A correct answer
// awards exactly one point; question point weights stay assessment metadata
// and do not inflate attempt scores.
type GradeResult struct {
	Status        GradeStatus `json:"status"`
	IsCorrect     bool        `json:"is_correct"`
	PointsAwarded int         `json:"points_awarded"`
}

// GradingService grades submitted answers against the correct-answer
// definition frozen on the attempt snapshot. All methods are pure.
type GradingService interface {
	Grade(questionType models.QuestionType, snapshot models.GradingSnapshot, answer models.Answer) GradeResult
}

type gradingService struct {
	logger *slog.Logger
}

func NewGradingService(logger *slog.Logger) GradingService {
	return &gradingService{logger: logger}
}

func (g *gradingService) Grade(questionType models.QuestionType, snapshot models.GradingSnapshot, answer models.Answer) GradeResult {
	switch questionType {
	case models.MultipleChoice, models.TrueFalse:
		selection, ok := answer.(models.SelectionAnswer)
		if !ok {
			return GradeResult{Status: GradeIncorrect}
		}
		return gradeSelection(snapshot.CorrectOptionTexts, selection.Selected)

	case models.ShortAnswer:
		text, ok := answer.(models.TextAnswer)
		if !ok {
			return GradeResult{Status: GradeIncorrect}
		}
		return gradeShortAnswer(snapshot.CorrectAnswer, text.Text)

	case models.Essay:
		return GradeResult{Status: GradePending}

	case models.Matching:
		return GradeResult{Status: GradeUnsupported}

	default:
		g.logger.Warn("grading requested for unknown question type", "type", questionType)
		return GradeResult{Status: GradeUnsupported}
	}
}

// gradeSelection checks exact set equality of the chosen option texts
// against the correct ones. Order-independent, no partial credit.
func gradeSelection(correctTexts, selectedTexts []string) GradeResult {
	if len(correctTexts) == 0 {
		return GradeResult{Status: GradeIncorrect}
	}

	correct := normalizeSet(correctTexts)
	selected := normalizeSet(selectedTexts)

	if len(correct) != len(selected) {
		return GradeResult{Status: GradeIncorrect}
	}
	for i := range correct {
		if correct[i] != selected[i] {
			return GradeResult{Status: GradeIncorrect}
		}
	}

	return GradeResult{Status: GradeCorrect, IsCorrect: true, PointsAwarded: 1}
}

// gradeShortAnswer does an exact case-insensitive match after trimming
// surrounding whitespace. No fuzzy matching.
func gradeShortAnswer(correctAnswer, userAnswer string) GradeResult {
	if correctAnswer == "" {
		return GradeResult{Status: GradeIncorrect}
	}

	if normalizeText(userAnswer) == normalizeText(correctAnswer) {
		return GradeResult{Status: GradeCorrect, IsCorrect: true, PointsAwarded: 1}
	}
	return GradeResult{Status: GradeIncorrect}
}

// normalizeSet deduplicates and sorts so comparison is order-independent.
func normalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/brightpath-edu/assessment-service/internal/cache"
	"github.com/brightpath-edu/assessment-service/internal/models"
	"github.com/brightpath-edu/assessment-service/internal/repositories"
)

// defaultPassingScorePercent is the threshold used by the system-wide rollup,
// where no single assessment's settings apply.
const defaultPassingScorePercent = 60

// Time buckets in seconds: quick below 30, slow above 90, medium between,
// bounds inclusive.
const (
	quickTimeThreshold = 30
	slowTimeThreshold  = 90
)

type analyticsService struct {
	repo   repositories.Repository
	cache  *cache.CacheManager
	logger *slog.Logger
}

func NewAnalyticsService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		cache:  cacheManager,
		logger: logger,
	}
}

// BuildAttemptAnalytics aggregates one attempt's graded snapshot. Topic and
// difficulty come from the live question records, fetched here by ID; the
// snapshot copies serve as fallback for questions deleted since the attempt
// started.
func (s *analyticsService) BuildAttemptAnalytics(ctx context.Context, questions []models.AttemptQuestion) (*models.AttemptAnalytics, error) {
	ids := make([]uint, 0, len(questions))
	seen := make(map[uint]struct{}, len(questions))
	for _, q := range questions {
		if _, ok := seen[q.QuestionID]; ok {
			continue
		}
		seen[q.QuestionID] = struct{}{}
		ids = append(ids, q.QuestionID)
	}

	byID := make(map[uint]*models.Question, len(ids))
	if len(ids) > 0 {
		live, err := s.repo.Question().GetByIDs(ctx, nil, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch questions for analytics: %w", err)
		}
		for _, q := range live {
			byID[q.ID] = q
		}
	}

	analytics := &models.AttemptAnalytics{
		AccuracyByTopic: []models.TopicAccuracy{},
	}

	topicIndex := make(map[string]int)
	bands := map[models.DifficultyLevel]*models.DifficultyBand{
		models.DifficultyEasy:   &analytics.DifficultyAnalysis.Easy,
		models.DifficultyMedium: &analytics.DifficultyAnalysis.Medium,
		models.DifficultyHard:   &analytics.DifficultyAnalysis.Hard,
	}

	timeSum := 0
	attempted := 0

	for _, q := range questions {
		if !q.Answered {
			continue
		}

		topic := q.Topic
		difficulty := q.Difficulty
		if live, ok := byID[q.QuestionID]; ok {
			topic = live.Topic
			difficulty = live.Difficulty
		}

		attempted++
		timeSum += q.TimeSpentSeconds

		idx, ok := topicIndex[topic]
		if !ok {
			idx = len(analytics.AccuracyByTopic)
			topicIndex[topic] = idx
			analytics.AccuracyByTopic = append(analytics.AccuracyByTopic, models.TopicAccuracy{Topic: topic})
		}
		entry := &analytics.AccuracyByTopic[idx]
		entry.QuestionsAttempted++
		if q.IsCorrect {
			entry.QuestionsCorrect++
		}

		if band, ok := bands[difficulty]; ok {
			band.QuestionsAttempted++
			if q.IsCorrect {
				band.QuestionsCorrect++
			}
		}

		switch {
		case q.TimeSpentSeconds < quickTimeThreshold:
			analytics.TimeAnalysis.Distribution.Quick++
		case q.TimeSpentSeconds > slowTimeThreshold:
			analytics.TimeAnalysis.Distribution.Slow++
		default:
			analytics.TimeAnalysis.Distribution.Medium++
		}
	}

	for i := range analytics.AccuracyByTopic {
		entry := &analytics.AccuracyByTopic[i]
		entry.Accuracy = roundPercent(entry.QuestionsCorrect, entry.QuestionsAttempted)
	}
	for _, band := range bands {
		band.Accuracy = roundPercent(band.QuestionsCorrect, band.QuestionsAttempted)
	}
	if attempted > 0 {
		analytics.TimeAnalysis.AverageTimePerQuestion = int(math.Round(float64(timeSum) / float64(attempted)))
	}

	return analytics, nil
}

// GetAssessmentStats reduces the assessment's completed attempts into one
// summary. An assessment with no completed attempts yields zeroed counters.
func (s *analyticsService) GetAssessmentStats(ctx context.Context, assessmentID uint) (*models.AssessmentStats, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	stats := &models.AssessmentStats{AssessmentID: assessmentID}
	cacheKey := fmt.Sprintf("assessment:%d:stats", assessmentID)

	err = s.cache.Stats.CacheOrExecute(ctx, cacheKey, stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		attempts, err := s.repo.Attempt().GetCompletedByAssessment(ctx, nil, assessmentID)
		if err != nil {
			return nil, err
		}
		return reduceAssessmentStats(assessmentID, assessment.Settings.PassingScorePercent, attempts), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute assessment stats: %w", err)
	}

	return stats, nil
}

// GetUserPerformance summarizes one user's completed attempts, folding the
// per-attempt analytics stored at completion into cross-assessment topic
// accuracy and per-subject averages.
func (s *analyticsService) GetUserPerformance(ctx context.Context, userID string) (*models.UserPerformance, error) {
	if _, err := s.repo.User().GetByID(ctx, nil, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	performance := &models.UserPerformance{UserID: userID}
	cacheKey := fmt.Sprintf("user:%s:performance", userID)

	err := s.cache.Stats.CacheOrExecute(ctx, cacheKey, performance, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		attempts, err := s.repo.Attempt().GetCompletedByUser(ctx, nil, userID)
		if err != nil {
			return nil, err
		}
		return s.reduceUserPerformance(ctx, userID, attempts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute user performance: %w", err)
	}

	return performance, nil
}

// GetSystemStats is the platform-wide rollup over all attempts.
func (s *analyticsService) GetSystemStats(ctx context.Context) (*models.SystemStats, error) {
	stats := &models.SystemStats{}

	err := s.cache.Stats.CacheOrExecute(ctx, "system", stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		out := &models.SystemStats{}

		_, total, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{Limit: 1})
		if err != nil {
			return nil, err
		}
		out.TotalAttempts = int(total)

		active := models.AttemptInProgress
		_, activeTotal, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{Status: &active, Limit: 1})
		if err != nil {
			return nil, err
		}
		out.ActiveAttempts = int(activeTotal)

		completed := models.AttemptCompleted
		attempts, completedTotal, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{Status: &completed})
		if err != nil {
			return nil, err
		}
		out.CompletedAttempts = int(completedTotal)

		if len(attempts) > 0 {
			scoreSum := 0
			passed := 0
			for _, a := range attempts {
				scoreSum += a.Score
				if a.Score >= defaultPassingScorePercent {
					passed++
				}
			}
			out.AverageScore = int(math.Round(float64(scoreSum) / float64(len(attempts))))
			out.PassRate = math.Round(float64(passed)/float64(len(attempts))*10000) / 100
		}

		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute system stats: %w", err)
	}

	return stats, nil
}

// ===== REDUCTIONS =====

func reduceAssessmentStats(assessmentID uint, passingScore int, attempts []*models.Attempt) *models.AssessmentStats {
	stats := &models.AssessmentStats{AssessmentID: assessmentID}
	if len(attempts) == 0 {
		return stats
	}

	students := make(map[string]struct{})
	scoreSum := 0
	timeSum := 0
	passed := 0
	stats.LowestScore = attempts[0].Score

	for _, a := range attempts {
		students[a.UserID] = struct{}{}
		scoreSum += a.Score
		timeSum += a.TimeTakenSeconds
		if a.Score >= passingScore {
			passed++
		}
		if a.Score > stats.HighestScore {
			stats.HighestScore = a.Score
		}
		if a.Score < stats.LowestScore {
			stats.LowestScore = a.Score
		}
	}

	stats.CompletedAttempts = len(attempts)
	stats.UniqueStudents = len(students)
	stats.AverageScore = int(math.Round(float64(scoreSum) / float64(len(attempts))))
	stats.AverageTimeTaken = int(math.Round(float64(timeSum) / float64(len(attempts))))
	stats.PassRate = math.Round(float64(passed)/float64(len(attempts))*10000) / 100

	return stats
}

func (s *analyticsService) reduceUserPerformance(ctx context.Context, userID string, attempts []*models.Attempt) (*models.UserPerformance, error) {
	performance := &models.UserPerformance{
		UserID:           userID,
		AccuracyByTopic:  []models.TopicAccuracy{},
		SubjectBreakdown: []models.SubjectStats{},
	}
	if len(attempts) == 0 {
		return performance, nil
	}

	scoreSum := 0
	topicIndex := make(map[string]int)
	subjects := make(map[string]*models.SubjectStats)
	subjectOrder := []string{}
	assessmentSubjects := make(map[uint]string)

	for _, a := range attempts {
		scoreSum += a.Score
		if a.Score > performance.BestScore {
			performance.BestScore = a.Score
		}

		analytics, err := a.ParsedAnalytics()
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping malformed attempt analytics",
				"attempt_id", a.ID,
				"error", err)
		} else if analytics != nil {
			for _, topic := range analytics.AccuracyByTopic {
				idx, ok := topicIndex[topic.Topic]
				if !ok {
					idx = len(performance.AccuracyByTopic)
					topicIndex[topic.Topic] = idx
					performance.AccuracyByTopic = append(performance.AccuracyByTopic, models.TopicAccuracy{Topic: topic.Topic})
				}
				entry := &performance.AccuracyByTopic[idx]
				entry.QuestionsAttempted += topic.QuestionsAttempted
				entry.QuestionsCorrect += topic.QuestionsCorrect
			}
		}

		subject, ok := assessmentSubjects[a.AssessmentID]
		if !ok {
			assessment, err := s.repo.Assessment().GetByID(ctx, nil, a.AssessmentID)
			if err != nil {
				s.logger.WarnContext(ctx, "Assessment missing for attempt",
					"assessment_id", a.AssessmentID,
					"error", err)
				assessmentSubjects[a.AssessmentID] = ""
				continue
			}
			subject = assessment.Subject
			assessmentSubjects[a.AssessmentID] = subject
		}
		if subject == "" {
			continue
		}

		entry, ok := subjects[subject]
		if !ok {
			entry = &models.SubjectStats{Subject: subject}
			subjects[subject] = entry
			subjectOrder = append(subjectOrder, subject)
		}
		entry.CompletedAttempts++
		entry.AverageScore += a.Score // running sum, divided below
	}

	performance.CompletedAttempts = len(attempts)
	performance.AverageScore = int(math.Round(float64(scoreSum) / float64(len(attempts))))

	for i := range performance.AccuracyByTopic {
		entry := &performance.AccuracyByTopic[i]
		entry.Accuracy = roundPercent(entry.QuestionsCorrect, entry.QuestionsAttempted)
	}

	for _, subject := range subjectOrder {
		entry := subjects[subject]
		entry.AverageScore = int(math.Round(float64(entry.AverageScore) / float64(entry.CompletedAttempts)))
		performance.SubjectBreakdown = append(performance.SubjectBreakdown, *entry)
	}

	return performance, nil
}

func roundPercent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

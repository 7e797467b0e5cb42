package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightpath-edu/assessment-service/internal/cache"
	"github.com/brightpath-edu/assessment-service/internal/events"
	"github.com/brightpath-edu/assessment-service/internal/models"
	"github.com/brightpath-edu/assessment-service/internal/repositories"
	"github.com/brightpath-edu/assessment-service/internal/validator"
)

func newTestAttemptService(repo *MockRepository, publisher events.EventPublisher) AttemptService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	analytics := NewAnalyticsService(repo, cache.NewCacheManager(nil), logger)
	return NewAttemptService(repo, nil, NewGradingService(logger), analytics, publisher, logger, validator.New())
}

func testPublisher() *events.MockEventPublisher {
	return events.NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// activeAssessment is a two-question active assessment: one multiple choice
// and one short answer.
func activeAssessment() *models.Assessment {
	correct := "42"
	return &models.Assessment{
		ID:         1,
		Title:      "Algebra Basics",
		Status:     models.AssessmentActive,
		Subject:    "Math",
		Difficulty: models.AssessmentMedium,
		Settings: models.AssessmentSettings{
			AssessmentID:        1,
			TimeLimitMinutes:    30,
			PassingScorePercent: 60,
			MaxAttempts:         2,
		},
		Questions: []models.AssessmentQuestion{
			{
				AssessmentID: 1, QuestionID: 10, Order: 1, Points: 1,
				Question: models.Question{
					ID: 10, Type: models.MultipleChoice, Topic: "Algebra",
					Difficulty: models.DifficultyEasy,
					Options:    datatypes.JSON(`[{"text":"4","is_correct":true},{"text":"5","is_correct":false}]`),
				},
			},
			{
				AssessmentID: 1, QuestionID: 11, Order: 2, Points: 1,
				Question: models.Question{
					ID: 11, Type: models.ShortAnswer, Topic: "Algebra",
					Difficulty:    models.DifficultyMedium,
					CorrectAnswer: &correct,
				},
			},
		},
	}
}

func activeAttempt(t *testing.T) *models.Attempt {
	t.Helper()
	snapshot, err := buildQuestionSnapshot(activeAssessment())
	require.NoError(t, err)

	attempt := &models.Attempt{
		ID:            7,
		AssessmentID:  1,
		UserID:        "student-1",
		Status:        models.AttemptInProgress,
		StartedAt:     time.Now().Add(-time.Minute),
		AttemptNumber: 1,
		Version:       1,
	}
	require.NoError(t, attempt.SetQuestions(snapshot))
	return attempt
}

func intPtr(i int) *int { return &i }

// ===== ELIGIBILITY =====

func TestAttemptService_CanStart(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*MockRepository)
		wantErr    error
	}{
		{
			name: "eligible",
			setupMocks: func(repo *MockRepository) {
				repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
				repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(nil, gorm.ErrRecordNotFound)
				repo.attempt.On("CountCompleted", mock.Anything, mock.Anything, "student-1", uint(1)).Return(int64(0), nil)
			},
			wantErr: nil,
		},
		{
			name: "assessment not active",
			setupMocks: func(repo *MockRepository) {
				assessment := activeAssessment()
				assessment.Status = models.AssessmentDraft
				repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(assessment, nil)
			},
			wantErr: ErrAssessmentNotActive,
		},
		{
			name: "assessment missing",
			setupMocks: func(repo *MockRepository) {
				repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(nil, gorm.ErrRecordNotFound)
			},
			wantErr: ErrAssessmentNotFound,
		},
		{
			name: "attempt already in progress",
			setupMocks: func(repo *MockRepository) {
				repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
				repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(activeAttempt(t), nil)
			},
			wantErr: ErrAttemptAlreadyActive,
		},
		{
			name: "attempt limit exhausted",
			setupMocks: func(repo *MockRepository) {
				repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
				repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(nil, gorm.ErrRecordNotFound)
				repo.attempt.On("CountCompleted", mock.Anything, mock.Anything, "student-1", uint(1)).Return(int64(2), nil)
			},
			wantErr: ErrAttemptLimitExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			tt.setupMocks(repo)

			service := newTestAttemptService(repo, testPublisher())

			err := service.CanStart(context.Background(), 1, "student-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

// ===== START =====

func TestAttemptService_Start_InitializesSnapshot(t *testing.T) {
	repo := newMockRepository()
	publisher := testPublisher()

	repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(nil, gorm.ErrRecordNotFound)
	repo.attempt.On("CountCompleted", mock.Anything, mock.Anything, "student-1", uint(1)).Return(int64(1), nil)
	repo.attempt.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(a *models.Attempt) bool {
		return a.AssessmentID == 1 && a.UserID == "student-1" && a.Status == models.AttemptInProgress
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*models.Attempt).ID = 7
	}).Return(nil)

	service := newTestAttemptService(repo, publisher)

	response, err := service.Start(context.Background(), 1, "student-1")
	require.NoError(t, err)

	assert.Equal(t, uint(7), response.Attempt.ID)
	assert.Equal(t, 2, response.Attempt.AttemptNumber)
	assert.Equal(t, 1, response.Attempt.Version)

	// The snapshot carries the ordered questions with nothing answered and
	// no correctness leaked.
	require.Len(t, response.Questions, 2)
	assert.Equal(t, uint(10), response.Questions[0].QuestionID)
	assert.Equal(t, uint(11), response.Questions[1].QuestionID)
	for _, q := range response.Questions {
		assert.False(t, q.Answered)
		assert.Nil(t, q.IsCorrect)
	}

	// The grading content is frozen server-side.
	stored, err := response.Attempt.ParsedQuestions()
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, stored[0].Grading.CorrectOptionTexts)
	assert.Equal(t, "42", stored[1].Grading.CorrectAnswer)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptStarted, published[0].Type)

	repo.AssertExpectations(t)
}

func TestAttemptService_Start_ResumesExistingAttempt(t *testing.T) {
	repo := newMockRepository()
	existing := activeAttempt(t)

	repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(existing, nil)

	publisher := testPublisher()
	service := newTestAttemptService(repo, publisher)

	response, err := service.Start(context.Background(), 1, "student-1")
	require.NoError(t, err)

	assert.Equal(t, existing.ID, response.Attempt.ID)
	assert.Empty(t, publisher.GetPublishedEvents(), "resume publishes no started event")
	repo.AssertExpectations(t)
}

func TestAttemptService_Start_LosesCreateRace(t *testing.T) {
	repo := newMockRepository()
	winner := activeAttempt(t)

	repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(nil, gorm.ErrRecordNotFound).Once()
	repo.attempt.On("CountCompleted", mock.Anything, mock.Anything, "student-1", uint(1)).Return(int64(0), nil)
	repo.attempt.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(repositories.ErrDuplicateKey)
	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(winner, nil).Once()

	service := newTestAttemptService(repo, testPublisher())

	response, err := service.Start(context.Background(), 1, "student-1")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, response.Attempt.ID)
	repo.AssertExpectations(t)
}

// ===== SUBMIT ANSWER =====

func TestAttemptService_SubmitAnswer_GradesAndRecords(t *testing.T) {
	repo := newMockRepository()
	attempt := activeAttempt(t)

	repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(attempt, nil)
	repo.attempt.On("UpdateChecked", mock.Anything, mock.Anything, attempt).Return(nil)

	service := newTestAttemptService(repo, testPublisher())

	response, err := service.SubmitAnswer(context.Background(), 1, "student-1", &models.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		UserAnswer:    json.RawMessage(`["4"]`),
		TimeSpent:     25,
	})
	require.NoError(t, err)

	assert.True(t, response.IsCorrect)
	assert.Equal(t, 1, response.PointsAwarded)
	assert.Equal(t, string(GradeCorrect), response.GradeStatus)
	assert.Equal(t, 1, response.Progress.QuestionsAnswered)
	assert.Equal(t, 2, response.Progress.TotalQuestions)

	questions, err := attempt.ParsedQuestions()
	require.NoError(t, err)
	assert.True(t, questions[0].Answered)
	assert.True(t, questions[0].IsCorrect)
	assert.Equal(t, 25, questions[0].TimeSpentSeconds)
}

func TestAttemptService_SubmitAnswer_OverwritesPreviousAnswer(t *testing.T) {
	repo := newMockRepository()
	attempt := activeAttempt(t)

	repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(attempt, nil)
	repo.attempt.On("UpdateChecked", mock.Anything, mock.Anything, attempt).Return(nil)

	service := newTestAttemptService(repo, testPublisher())

	first, err := service.SubmitAnswer(context.Background(), 1, "student-1", &models.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		UserAnswer:    json.RawMessage(`["4"]`),
		TimeSpent:     20,
	})
	require.NoError(t, err)
	assert.True(t, first.IsCorrect)
	assert.Equal(t, 1, first.Progress.QuestionsAnswered)

	// Resubmitting the same index replaces the answer; the answered count
	// does not grow.
	second, err := service.SubmitAnswer(context.Background(), 1, "student-1", &models.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		UserAnswer:    json.RawMessage(`["5"]`),
		TimeSpent:     40,
	})
	require.NoError(t, err)
	assert.False(t, second.IsCorrect)
	assert.Equal(t, 1, second.Progress.QuestionsAnswered)

	questions, err := attempt.ParsedQuestions()
	require.NoError(t, err)
	assert.False(t, questions[0].IsCorrect)
	assert.Equal(t, 40, questions[0].TimeSpentSeconds)
}

func TestAttemptService_SubmitAnswer_InvalidIndex(t *testing.T) {
	repo := newMockRepository()
	attempt := activeAttempt(t)

	repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(attempt, nil)

	service := newTestAttemptService(repo, testPublisher())

	_, err := service.SubmitAnswer(context.Background(), 1, "student-1", &models.SubmitAnswerRequest{
		QuestionIndex: intPtr(5),
		UserAnswer:    json.RawMessage(`["4"]`),
	})
	assert.ErrorIs(t, err, ErrInvalidQuestionIndex)
}

func TestAttemptService_SubmitAnswer_AfterDeadline(t *testing.T) {
	repo := newMockRepository()
	attempt := activeAttempt(t)
	attempt.StartedAt = time.Now().Add(-31 * time.Minute) // limit is 30

	repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(attempt, nil)

	service := newTestAttemptService(repo, testPublisher())

	_, err := service.SubmitAnswer(context.Background(), 1, "student-1", &models.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		UserAnswer:    json.RawMessage(`["4"]`),
	})
	assert.ErrorIs(t, err, ErrAttemptTimeExpired)
}

func TestAttemptService_SubmitAnswer_VersionConflictExhaustsRetries(t *testing.T) {
	repo := newMockRepository()

	repo.assessment.On("GetByIDWithDetails", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(activeAttempt(t), nil).Times(attemptSaveRetries)
	repo.attempt.On("UpdateChecked", mock.Anything, mock.Anything, mock.Anything).Return(repositories.ErrVersionConflict).Times(attemptSaveRetries)

	service := newTestAttemptService(repo, testPublisher())

	_, err := service.SubmitAnswer(context.Background(), 1, "student-1", &models.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		UserAnswer:    json.RawMessage(`["4"]`),
	})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	repo.AssertExpectations(t)
}

// ===== COMPLETE =====

func TestAttemptService_Complete_DerivesTotalsAndAppliesScore(t *testing.T) {
	repo := newMockRepository()
	publisher := testPublisher()
	attempt := activeAttempt(t)

	// One of two questions answered correctly.
	questions, err := attempt.ParsedQuestions()
	require.NoError(t, err)
	questions[0].Answered = true
	questions[0].IsCorrect = true
	questions[0].PointsAwarded = 1
	questions[0].TimeSpentSeconds = 20
	require.NoError(t, attempt.SetQuestions(questions))

	now := time.Now()
	userAfter := &models.User{
		ID: "student-1", TotalAssessments: 1, TotalScore: 50, AverageScore: 50,
		LastActivity: &now,
	}

	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(attempt, nil)
	repo.question.On("GetByIDs", mock.Anything, mock.Anything, []uint{10, 11}).Return([]*models.Question{
		&activeAssessment().Questions[0].Question,
		&activeAssessment().Questions[1].Question,
	}, nil)
	repo.attempt.On("UpdateChecked", mock.Anything, mock.Anything, attempt).Return(nil)
	repo.scoreApplication.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(sa *models.ScoreApplication) bool {
		return sa.AttemptID == attempt.ID && sa.UserID == "student-1" && sa.Score == 50
	})).Return(nil)
	repo.user.On("ApplyScore", mock.Anything, mock.Anything, "student-1", 50, mock.Anything).Return(userAfter, nil)

	service := newTestAttemptService(repo, publisher)

	response, err := service.Complete(context.Background(), 1, "student-1")
	require.NoError(t, err)

	assert.Equal(t, models.AttemptCompleted, response.Attempt.Status)
	assert.Equal(t, 2, response.Attempt.TotalPoints)
	assert.Equal(t, 1, response.Attempt.PointsAwarded)
	assert.Equal(t, 50, response.Attempt.Score)
	assert.Equal(t, 20, response.Attempt.TimeTakenSeconds)
	assert.NotNil(t, response.Attempt.CompletedAt)
	assert.Equal(t, 50, response.UserScore.AverageScore)

	// Analytics were computed, stored on the attempt and returned.
	require.NotNil(t, response.Analytics)
	require.Len(t, response.Analytics.AccuracyByTopic, 1)
	assert.Equal(t, "Algebra", response.Analytics.AccuracyByTopic[0].Topic)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventAttemptCompleted, published[0].Type)
	assert.Equal(t, events.EventUserAcademicUpdated, published[1].Type)

	repo.AssertExpectations(t)
}

func TestAttemptService_Complete_EmptySnapshotScoresZero(t *testing.T) {
	repo := newMockRepository()
	attempt := activeAttempt(t)
	require.NoError(t, attempt.SetQuestions([]models.AttemptQuestion{}))

	now := time.Now()
	userAfter := &models.User{ID: "student-1", TotalAssessments: 1, LastActivity: &now}

	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(attempt, nil)
	repo.attempt.On("UpdateChecked", mock.Anything, mock.Anything, attempt).Return(nil)
	repo.scoreApplication.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.user.On("ApplyScore", mock.Anything, mock.Anything, "student-1", 0, mock.Anything).Return(userAfter, nil)

	service := newTestAttemptService(repo, testPublisher())

	response, err := service.Complete(context.Background(), 1, "student-1")
	require.NoError(t, err)

	assert.Equal(t, 0, response.Attempt.Score)
	assert.Equal(t, 0, response.Attempt.TotalPoints)
	assert.Equal(t, 0, response.Attempt.PointsAwarded)
}

func TestAttemptService_Complete_TwiceReturnsFinalizedAttempt(t *testing.T) {
	repo := newMockRepository()
	completedAt := time.Now().Add(-time.Hour)
	finalized := &models.Attempt{
		ID: 7, AssessmentID: 1, UserID: "student-1",
		Status: models.AttemptCompleted, CompletedAt: &completedAt,
		Score: 50, TotalPoints: 2, PointsAwarded: 1,
	}
	user := &models.User{ID: "student-1", TotalAssessments: 1, TotalScore: 50, AverageScore: 50}

	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(nil, gorm.ErrRecordNotFound)
	repo.attempt.On("List", mock.Anything, mock.Anything, mock.MatchedBy(func(f repositories.AttemptFilters) bool {
		return f.Status != nil && *f.Status == models.AttemptCompleted && f.Limit == 1
	})).Return([]*models.Attempt{finalized}, int64(1), nil)
	repo.user.On("GetByID", mock.Anything, mock.Anything, "student-1").Return(user, nil)

	publisher := testPublisher()
	service := newTestAttemptService(repo, publisher)

	response, err := service.Complete(context.Background(), 1, "student-1")
	require.NoError(t, err)

	// Unchanged totals, no second score application, no new events.
	assert.Equal(t, 50, response.Attempt.Score)
	assert.Equal(t, 1, response.UserScore.TotalAssessments)
	assert.Empty(t, publisher.GetPublishedEvents())
	repo.AssertExpectations(t)
}

func TestAttemptService_Complete_AfterDeadlineStillFinalizes(t *testing.T) {
	repo := newMockRepository()
	attempt := activeAttempt(t)
	attempt.StartedAt = time.Now().Add(-2 * time.Hour) // limit is 30 minutes

	now := time.Now()
	userAfter := &models.User{ID: "student-1", TotalAssessments: 1, LastActivity: &now}

	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(attempt, nil)
	repo.question.On("GetByIDs", mock.Anything, mock.Anything, []uint{10, 11}).Return([]*models.Question{}, nil)
	repo.attempt.On("UpdateChecked", mock.Anything, mock.Anything, attempt).Return(nil)
	repo.scoreApplication.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.user.On("ApplyScore", mock.Anything, mock.Anything, "student-1", 0, mock.Anything).Return(userAfter, nil)

	service := newTestAttemptService(repo, testPublisher())

	// Answers recorded before the deadline still finalize; only new
	// submissions are rejected after time runs out.
	response, err := service.Complete(context.Background(), 1, "student-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptCompleted, response.Attempt.Status)
	repo.AssertExpectations(t)
}

// ===== ABANDON =====

func TestAttemptService_Abandon(t *testing.T) {
	repo := newMockRepository()
	publisher := testPublisher()
	attempt := activeAttempt(t)

	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(attempt, nil)
	repo.attempt.On("UpdateChecked", mock.Anything, mock.Anything, mock.MatchedBy(func(a *models.Attempt) bool {
		return a.Status == models.AttemptAbandoned
	})).Return(nil)

	service := newTestAttemptService(repo, publisher)

	err := service.Abandon(context.Background(), 1, "student-1")
	require.NoError(t, err)

	// No score, no totals, no user counter changes.
	assert.Equal(t, 0, attempt.Score)
	assert.Nil(t, attempt.CompletedAt)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptAbandoned, published[0].Type)
	repo.AssertExpectations(t)
}

func TestAttemptService_Abandon_NoActiveAttempt(t *testing.T) {
	repo := newMockRepository()
	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(nil, gorm.ErrRecordNotFound)

	service := newTestAttemptService(repo, testPublisher())

	err := service.Abandon(context.Background(), 1, "student-1")
	assert.ErrorIs(t, err, ErrNoActiveAttempt)
}

// ===== HISTORY =====

func TestAttemptService_GetByID_Ownership(t *testing.T) {
	attempt := activeAttempt(t)

	tests := []struct {
		name      string
		caller    string
		role      models.UserRole
		expectErr bool
	}{
		{name: "owner reads own attempt", caller: "student-1", role: models.RoleStudent},
		{name: "teacher reads any attempt", caller: "teacher-1", role: models.RoleTeacher},
		{name: "admin reads any attempt", caller: "admin-1", role: models.RoleAdmin},
		{name: "other student denied", caller: "student-2", role: models.RoleStudent, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			repo.attempt.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(attempt, nil)

			service := newTestAttemptService(repo, testPublisher())

			response, err := service.GetByID(context.Background(), 7, tt.caller, tt.role)
			if tt.expectErr {
				require.Error(t, err)
				var pe *PermissionError
				assert.ErrorAs(t, err, &pe)
			} else {
				require.NoError(t, err)
				assert.Equal(t, attempt.ID, response.Attempt.ID)
			}
		})
	}
}

func TestAttemptService_List_StudentsScopedToOwnHistory(t *testing.T) {
	repo := newMockRepository()
	repo.attempt.On("List", mock.Anything, mock.Anything, mock.MatchedBy(func(f repositories.AttemptFilters) bool {
		return f.UserID != nil && *f.UserID == "student-1" && f.Limit == 20 && f.Offset == 0
	})).Return([]*models.Attempt{}, int64(0), nil)

	service := newTestAttemptService(repo, testPublisher())

	response, err := service.List(context.Background(), &models.AttemptListRequest{}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, 1, response.Page)
	assert.Equal(t, 20, response.PageSize)
	repo.AssertExpectations(t)
}

func TestAttemptService_List_TeachersSeeEverything(t *testing.T) {
	repo := newMockRepository()
	repo.attempt.On("List", mock.Anything, mock.Anything, mock.MatchedBy(func(f repositories.AttemptFilters) bool {
		return f.UserID == nil
	})).Return([]*models.Attempt{}, int64(0), nil)

	service := newTestAttemptService(repo, testPublisher())

	_, err := service.List(context.Background(), &models.AttemptListRequest{}, "teacher-1", models.RoleTeacher)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// ===== RESPONSE SHAPING =====

func TestAttemptService_InProgressResponseWithholdsAnswerKey(t *testing.T) {
	repo := newMockRepository()
	attempt := activeAttempt(t)

	questions, err := attempt.ParsedQuestions()
	require.NoError(t, err)
	questions[0].Answered = true
	questions[0].IsCorrect = true
	questions[0].PointsAwarded = 1
	require.NoError(t, attempt.SetQuestions(questions))

	repo.attempt.On("GetActive", mock.Anything, mock.Anything, "student-1", uint(1)).Return(attempt, nil)

	service := newTestAttemptService(repo, testPublisher())

	response, err := service.GetActive(context.Background(), 1, "student-1")
	require.NoError(t, err)

	payload, err := json.Marshal(response)
	require.NoError(t, err)
	body := string(payload)

	// The wire form of a running attempt carries neither the frozen answer
	// key nor per-question correctness.
	assert.NotContains(t, body, "grading")
	assert.NotContains(t, body, "correct_option_texts")
	assert.NotContains(t, body, "correct_answer")
	assert.NotContains(t, body, "is_correct")
}

func TestAttemptService_CompletedResponseShowsResultsNotAnswerKey(t *testing.T) {
	repo := newMockRepository()
	attempt := activeAttempt(t)

	questions, err := attempt.ParsedQuestions()
	require.NoError(t, err)
	questions[0].Answered = true
	questions[0].IsCorrect = true
	questions[0].PointsAwarded = 1
	require.NoError(t, attempt.SetQuestions(questions))
	attempt.Status = models.AttemptCompleted
	require.NoError(t, attempt.SetAnalytics(&models.AttemptAnalytics{
		AccuracyByTopic: []models.TopicAccuracy{
			{Topic: "Algebra", QuestionsAttempted: 1, QuestionsCorrect: 1, Accuracy: 100},
		},
	}))

	repo.attempt.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(attempt, nil)

	service := newTestAttemptService(repo, testPublisher())

	response, err := service.GetByID(context.Background(), 7, "student-1", models.RoleStudent)
	require.NoError(t, err)
	require.NotNil(t, response.Analytics)

	payload, err := json.Marshal(response)
	require.NoError(t, err)
	body := string(payload)

	// Results show correctness once completed, still without the key.
	assert.Contains(t, body, `"is_correct":true`)
	assert.NotContains(t, body, "correct_option_texts")
	assert.NotContains(t, body, "correct_answer")
}

func TestAttemptService_ListResponseExcludesSnapshots(t *testing.T) {
	repo := newMockRepository()
	attempt := activeAttempt(t)

	repo.attempt.On("List", mock.Anything, mock.Anything, mock.Anything).Return([]*models.Attempt{attempt}, int64(1), nil)

	service := newTestAttemptService(repo, testPublisher())

	response, err := service.List(context.Background(), &models.AttemptListRequest{}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	payload, err := json.Marshal(response)
	require.NoError(t, err)
	body := string(payload)

	assert.NotContains(t, body, "grading")
	assert.NotContains(t, body, "correct_option_texts")
	assert.NotContains(t, body, "correct_answer")
}

// ===== VALIDATION =====

func TestAttemptService_SubmitAnswer_ValidationErrorsCarryFieldDetails(t *testing.T) {
	repo := newMockRepository()
	service := newTestAttemptService(repo, testPublisher())

	_, err := service.SubmitAnswer(context.Background(), 1, "student-1", &models.SubmitAnswerRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)

	var fieldErrors validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrors)

	fields := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "QuestionIndex")
	assert.Contains(t, fields, "UserAnswer")
}

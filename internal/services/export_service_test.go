package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/brightpath-edu/assessment-service/internal/models"
)

func newTestExportService(repo *MockRepository) ExportService {
	return NewExportService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExportService_ExportAssessmentResults(t *testing.T) {
	repo := newMockRepository()

	startedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	completedAt := startedAt.Add(12 * time.Minute)

	repo.assessment.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
	repo.attempt.On("GetCompletedByAssessment", mock.Anything, mock.Anything, uint(1)).Return([]*models.Attempt{
		{
			ID: 7, UserID: "student-1", AttemptNumber: 1,
			Score: 80, PointsAwarded: 8, TotalPoints: 10,
			TimeTakenSeconds: 720, StartedAt: startedAt, CompletedAt: &completedAt,
		},
		{
			ID: 8, UserID: "student-2", AttemptNumber: 2,
			Score: 40, PointsAwarded: 4, TotalPoints: 10,
			TimeTakenSeconds: 900, StartedAt: startedAt, CompletedAt: &completedAt,
		},
	}, nil)
	repo.user.On("GetByIDs", mock.Anything, mock.Anything, []string{"student-1", "student-2"}).Return([]*models.User{
		{ID: "student-1", FullName: "Ada Lovelace"},
	}, nil)

	service := newTestExportService(repo)

	content, filename, err := service.ExportAssessmentResults(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, filename, "assessment_1_results_")
	assert.Contains(t, filename, ".xlsx")

	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer workbook.Close()

	header, err := workbook.GetCellValue("Results", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Attempt ID", header)

	// Known users export with their full name, unknown ones with their ID.
	name, err := workbook.GetCellValue("Results", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)
	name, err = workbook.GetCellValue("Results", "B3")
	require.NoError(t, err)
	assert.Equal(t, "student-2", name)

	// Pass column against the assessment's 60 percent threshold.
	passed, err := workbook.GetCellValue("Results", "G2")
	require.NoError(t, err)
	assert.Equal(t, "TRUE", passed)
	passed, err = workbook.GetCellValue("Results", "G3")
	require.NoError(t, err)
	assert.Equal(t, "FALSE", passed)

	repo.AssertExpectations(t)
}

func TestExportService_ExportAssessmentResults_NoAttempts(t *testing.T) {
	repo := newMockRepository()
	repo.assessment.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(activeAssessment(), nil)
	repo.attempt.On("GetCompletedByAssessment", mock.Anything, mock.Anything, uint(1)).Return([]*models.Attempt{}, nil)

	service := newTestExportService(repo)

	content, _, err := service.ExportAssessmentResults(context.Background(), 1)
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Results")
	require.NoError(t, err)
	assert.Len(t, rows, 1) // header only
	repo.user.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportService_ExportAssessmentResults_AssessmentMissing(t *testing.T) {
	repo := newMockRepository()
	repo.assessment.On("GetByID", mock.Anything, mock.Anything, uint(42)).Return(nil, gorm.ErrRecordNotFound)

	service := newTestExportService(repo)

	_, _, err := service.ExportAssessmentResults(context.Background(), 42)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

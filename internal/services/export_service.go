package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/brightpath-edu/assessment-service/internal/models"
	"github.com/brightpath-edu/assessment-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportAssessmentResults renders one row per completed attempt of the
// assessment into an Excel workbook.
func (s *exportService) ExportAssessmentResults(ctx context.Context, assessmentID uint) ([]byte, string, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrAssessmentNotFound
		}
		return nil, "", fmt.Errorf("failed to get assessment: %w", err)
	}

	attempts, err := s.repo.Attempt().GetCompletedByAssessment(ctx, nil, assessmentID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get completed attempts: %w", err)
	}

	users, err := s.usersFor(ctx, attempts)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Attempt ID", "Student", "Attempt Number", "Score", "Points Awarded",
		"Total Points", "Passed", "Time Taken (s)", "Started At", "Completed At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, attempt := range attempts {
		studentName := attempt.UserID
		if user, ok := users[attempt.UserID]; ok {
			studentName = user.FullName
		}

		completedAt := ""
		if attempt.CompletedAt != nil {
			completedAt = attempt.CompletedAt.Format(time.RFC3339)
		}

		row := []interface{}{
			attempt.ID,
			studentName,
			attempt.AttemptNumber,
			attempt.Score,
			attempt.PointsAwarded,
			attempt.TotalPoints,
			attempt.Score >= assessment.Settings.PassingScorePercent,
			attempt.TimeTakenSeconds,
			attempt.StartedAt.Format(time.RFC3339),
			completedAt,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	filename := fmt.Sprintf("assessment_%d_results_%s.xlsx", assessmentID, time.Now().Format("20060102"))

	s.logger.InfoContext(ctx, "Exported assessment results",
		"assessment_id", assessmentID,
		"attempts", len(attempts))

	return buf.Bytes(), filename, nil
}

func (s *exportService) usersFor(ctx context.Context, attempts []*models.Attempt) (map[string]*models.User, error) {
	ids := make([]string, 0, len(attempts))
	seen := make(map[string]struct{}, len(attempts))
	for _, a := range attempts {
		if _, ok := seen[a.UserID]; ok {
			continue
		}
		seen[a.UserID] = struct{}{}
		ids = append(ids, a.UserID)
	}
	if len(ids) == 0 {
		return map[string]*models.User{}, nil
	}

	users, err := s.repo.User().GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users for export: %w", err)
	}

	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

package excel

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/gclearnbot/internal/database"
)

// ExportConfig defines where export files are written.
type ExportConfig struct {
	Dir       string // Directory for generated files
	SheetName string // Name of the primary sheet
}

// DefaultExportConfig returns the default export configuration
func DefaultExportConfig(dir string) ExportConfig {
	return ExportConfig{
		Dir:       dir,
		SheetName: "Sheet1",
	}
}

// ExportUserJournal writes one user's journal entries to an .xlsx file and
// returns the file path.
func ExportUserJournal(userID int64, config ExportConfig) (string, error) {
	journalRepo := database.NewJournalRepository()
	userRepo := database.NewUserRepository()

	user, err := userRepo.GetByID(userID)
	if err != nil {
		return "", err
	}
	entries, err := journalRepo.AllByUser(userID)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Journal"
	f.SetSheetName(config.SheetName, sheet)

	headers := []string{"Lesson", "Response", "Length", "Keywords", "Timestamp"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, entry := range entries {
		values := []interface{}{
			entry.Lesson,
			entry.Response,
			entry.ResponseLength,
			strings.Join(entry.KeywordsUsed, ", "),
			entry.Timestamp.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	name := fmt.Sprintf("journal_%s_%d_%s.xlsx", user.Platform, user.ID, time.Now().UTC().Format("20060102"))
	path := filepath.Join(config.Dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save export file: %w", err)
	}
	return path, nil
}

// ExportCohort writes a population overview to an .xlsx file with one row
// per user plus a summary sheet, and returns the file path.
func ExportCohort(config ExportConfig) (string, error) {
	userRepo := database.NewUserRepository()
	journalRepo := database.NewJournalRepository()

	users, err := userRepo.GetAll()
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Users"
	f.SetSheetName(config.SheetName, sheet)

	headers := []string{
		"ID", "Platform", "Username", "Current Lesson", "Completed",
		"Completion %", "Responses", "Last Active",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, user := range users {
		count, err := journalRepo.CountByUser(user.ID)
		if err != nil {
			return "", err
		}
		values := []interface{}{
			user.ID,
			user.Platform,
			user.Username,
			user.CurrentLesson,
			strings.Join(user.CompletedLessons, ", "),
			fmt.Sprintf("%.1f", user.CompletionRate),
			count,
			user.LastActive.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := writeSummarySheet(f, userRepo); err != nil {
		return "", err
	}

	name := fmt.Sprintf("cohort_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(config.Dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save export file: %w", err)
	}
	return path, nil
}

func writeSummarySheet(f *excelize.File, userRepo *database.UserRepository) error {
	sheet := "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	total, err := userRepo.CountAll()
	if err != nil {
		return err
	}
	activeWeek, err := userRepo.CountActiveSince(time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		return err
	}
	avgRate, err := userRepo.AverageCompletionRate()
	if err != nil {
		return err
	}
	dist, err := userRepo.LessonDistribution()
	if err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Total users", total},
		{"Active last 7 days", activeWeek},
		{"Average completion %", fmt.Sprintf("%.1f", avgRate)},
		{},
		{"Lesson", "Users on lesson"},
	}
	for lesson, count := range dist {
		rows = append(rows, []interface{}{lesson, count})
	}

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			f.SetCellValue(sheet, cell, v)
		}
	}
	return nil
}

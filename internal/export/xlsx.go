package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KartikyaSokhal/CourseCraft/internal/coursegen"
)

const (
	SheetCourse    = "Course"
	SheetLessons   = "Lessons"
	SheetQuestions = "Questions"
)

var (
	lessonColumns   = []string{"order", "title", "youtube_search_query", "duration_seconds", "video_url", "fallback_reason"}
	questionColumns = []string{"lesson", "question", "choices", "correct_index", "correct_choice"}
)

func writeXLSX(w io.Writer, result *coursegen.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetCourse); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	for _, name := range []string{SheetLessons, SheetQuestions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	fallbackStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFF2CC"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating fallback style: %w", err)
	}

	if err := writeCourseSheet(f, result, headerStyle); err != nil {
		return err
	}
	if err := writeLessonsSheet(f, result, headerStyle, fallbackStyle); err != nil {
		return err
	}
	if err := writeQuestionsSheet(f, result, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeCourseSheet(f *excelize.File, result *coursegen.Result, headerStyle int) error {
	c := result.Course
	rows := [][]any{
		{"title", c.Title},
		{"description", c.Description},
		{"course_duration_days", c.CourseDurationDays},
		{"lessons", len(c.Lessons)},
		{"run_id", result.RunID},
		{"model", result.Model},
		{"used_fallback", result.UsedFallback},
		{"raw_artifact_ref", result.RawArtifactRef},
	}
	for i, row := range rows {
		if err := setRow(f, SheetCourse, i+1, row); err != nil {
			return err
		}
	}
	_ = f.SetCellStyle(SheetCourse, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle)
	_ = f.SetColWidth(SheetCourse, "A", "A", 22)
	_ = f.SetColWidth(SheetCourse, "B", "B", 60)
	return nil
}

func writeLessonsSheet(f *excelize.File, result *coursegen.Result, headerStyle, fallbackStyle int) error {
	if err := writeHeader(f, SheetLessons, lessonColumns, headerStyle); err != nil {
		return err
	}

	reasons := make(map[int]string, len(result.Fallbacks))
	for _, fb := range result.Fallbacks {
		reasons[fb.Lesson] = fb.Reason
	}

	for i, l := range result.Course.Lessons {
		row := i + 2
		order := l.Order
		if order == 0 {
			order = i + 1
		}
		if err := setRow(f, SheetLessons, row, []any{
			order, l.Title, l.YouTubeSearchQuery, l.DurationSeconds, l.VideoURL, reasons[i+1],
		}); err != nil {
			return err
		}
		if reasons[i+1] != "" {
			last, _ := excelize.CoordinatesToCellName(len(lessonColumns), row)
			_ = f.SetCellStyle(SheetLessons, fmt.Sprintf("A%d", row), last, fallbackStyle)
		}
	}

	widths := map[string]float64{"B": 36, "C": 40, "E": 45, "F": 18}
	for col, width := range widths {
		_ = f.SetColWidth(SheetLessons, col, col, width)
	}
	return nil
}

func writeQuestionsSheet(f *excelize.File, result *coursegen.Result, headerStyle int) error {
	if err := writeHeader(f, SheetQuestions, questionColumns, headerStyle); err != nil {
		return err
	}

	row := 2
	for i, l := range result.Course.Lessons {
		for _, q := range l.Questions {
			correct := ""
			if q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Choices) {
				correct = q.Choices[q.CorrectIndex]
			}
			if err := setRow(f, SheetQuestions, row, []any{
				i + 1, q.QuestionText, strings.Join(q.Choices, " | "), q.CorrectIndex, correct,
			}); err != nil {
				return err
			}
			row++
		}
	}

	_ = f.SetColWidth(SheetQuestions, "B", "C", 48)
	_ = f.SetColWidth(SheetQuestions, "E", "E", 24)
	return nil
}

func writeHeader(f *excelize.File, sheet string, columns []string, style int) error {
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

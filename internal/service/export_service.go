package service

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/examforge/examforge-backend/internal/assembly"
	"github.com/examforge/examforge-backend/internal/model"
)

// ExportService renders TOS matrices and test version papers as XLSX
// workbooks. It only formats; loading and ownership checks stay with
// the owning services.
type ExportService struct {
	log zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(log zerolog.Logger) *ExportService {
	return &ExportService{
		log: log.With().Str("component", "export_service").Logger(),
	}
}

// TOSWorkbook renders a persisted TOS document as a single-sheet
// workbook: one row per topic, one column group per Bloom level with
// the item count, item numbers and difficulty split, plus a totals row.
func (s *ExportService) TOSWorkbook(doc *model.TOSDocument) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "TOS"
	f.SetSheetName("Sheet1", sheet)

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	f.SetCellValue(sheet, "A1", doc.Title)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Total items: %d", doc.TotalItems))
	f.SetCellValue(sheet, "A3", fmt.Sprintf("Total hours: %.1f", doc.Matrix.TotalHours))

	const headerRow = 5
	cols := []string{"Topic", "Hours", "%"}
	for _, level := range model.BloomLevels {
		cols = append(cols, string(level))
	}
	cols = append(cols, "Total")
	for i, title := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, header)
	}

	row := headerRow + 1
	for _, topic := range doc.Matrix.Topics {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), topic.Topic)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), topic.Hours)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("%.1f%%", topic.Percent))
		for i, level := range model.BloomLevels {
			cell, _ := excelize.CoordinatesToCellName(4+i, row)
			f.SetCellValue(sheet, cell, cellText(topic.Cells[level]))
		}
		totalCell, _ := excelize.CoordinatesToCellName(4+len(model.BloomLevels), row)
		f.SetCellValue(sheet, totalCell, topic.Total)
		row++
	}

	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), doc.Matrix.TotalHours)
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), "100%")
	for i, level := range model.BloomLevels {
		sum := 0
		for _, topic := range doc.Matrix.Topics {
			sum += topic.Cells[level].Count
		}
		cell, _ := excelize.CoordinatesToCellName(4+i, row)
		f.SetCellValue(sheet, cell, sum)
	}
	totalCell, _ := excelize.CoordinatesToCellName(4+len(model.BloomLevels), row)
	f.SetCellValue(sheet, totalCell, doc.Matrix.TotalItems)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), totalCell, header)

	f.SetColWidth(sheet, "A", "A", 32)
	f.SetColWidth(sheet, "D", "I", 22)

	s.log.Debug().Str("tos_id", doc.ID.String()).Msg("tos workbook rendered")
	return f, nil
}

// cellText formats one Bloom cell for a worksheet cell: count, item
// number list and the easy/average/difficult split.
func cellText(cell model.BloomCell) string {
	if cell.Count == 0 {
		return "-"
	}
	nums := make([]string, len(cell.ItemNumbers))
	for i, n := range cell.ItemNumbers {
		nums[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d items (#%s)\nE/A/D: %d/%d/%d",
		cell.Count, strings.Join(nums, ", "),
		cell.Difficulty.Easy, cell.Difficulty.Average, cell.Difficulty.Difficult)
}

// VersionWorkbook renders one test version as a two-sheet workbook: the
// question paper in shuffled order and a separate answer key sheet.
func (s *ExportService) VersionWorkbook(test *model.Test, form *assembly.Form) (*excelize.File, error) {
	f := excelize.NewFile()
	paper := "Version " + form.Label
	f.SetSheetName("Sheet1", paper)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	f.SetCellValue(paper, "A1", test.Title)
	f.SetCellValue(paper, "A2", fmt.Sprintf("Version %s  (%d questions)", form.Label, len(form.Questions)))
	f.SetCellStyle(paper, "A1", "A1", bold)

	row := 4
	for i, q := range form.Questions {
		f.SetCellValue(paper, fmt.Sprintf("A%d", row), fmt.Sprintf("%d.", i+1))
		f.SetCellValue(paper, fmt.Sprintf("B%d", row), q.QuestionText)
		f.SetCellStyle(paper, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), bold)
		row++
		for _, choice := range q.Choices {
			f.SetCellValue(paper, fmt.Sprintf("B%d", row), fmt.Sprintf("%s. %s", choice.Label, choice.Text))
			row++
		}
		if q.QuestionType == model.QuestionTypeEssay {
			f.SetCellValue(paper, fmt.Sprintf("B%d", row), fmt.Sprintf("(essay, %d points)", q.Points))
			row++
		}
		row++
	}
	f.SetColWidth(paper, "B", "B", 80)

	key := "Answer Key"
	if _, err := f.NewSheet(key); err != nil {
		return nil, fmt.Errorf("create answer key sheet: %w", err)
	}
	f.SetCellValue(key, "A1", "No")
	f.SetCellValue(key, "B1", "Answer")
	f.SetCellStyle(key, "A1", "B1", bold)
	for i := range form.Questions {
		answer, ok := form.AnswerKey[i+1]
		if !ok {
			answer = "essay"
		}
		f.SetCellValue(key, fmt.Sprintf("A%d", i+2), i+1)
		f.SetCellValue(key, fmt.Sprintf("B%d", i+2), answer)
	}

	s.log.Debug().
		Str("test_id", test.ID.String()).
		Str("version", form.Label).
		Msg("version workbook rendered")
	return f, nil
}

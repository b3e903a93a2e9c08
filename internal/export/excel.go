package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/interview-report-agent/internal/models"
	"github.com/fmuoria/interview-report-agent/internal/prompt"
)

const (
	summarySheet = "Summary"
	reportsSheet = "Reports"
)

// band groups scores by their distance from the population average,
// using the same thresholds as the report header colour
type band struct {
	label string
	color string // report colour returned by prompt.SuitabilityColor
	fill  string // spreadsheet fill
}

var bands = []band{
	{label: "Well above average (>= +5)", color: "#27ae60", fill: "C6EFCE"},
	{label: "Above average (+2.5 to +5)", color: "#8bc34a", fill: "E2F0D9"},
	{label: "Around average (±2.5)", color: "#ffc107", fill: "FFEB9C"},
	{label: "Below average (-2.5 to -5)", color: "#ff9800", fill: "FFD8A8"},
	{label: "Well below average (< -5)", color: "#f44336", fill: "FF9999"},
}

const failedFill = "D9D9D9"

func bandIndex(r models.ReportResult) int {
	color := prompt.SuitabilityColor(r.LLMScore, r.AvgLLMScore)
	for i, b := range bands {
		if b.color == color {
			return i
		}
	}
	return len(bands) - 1
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// ExportSummary writes a workbook describing a batch run: a Summary sheet with
// counts and score statistics and a Reports sheet ranked by score.
func ExportSummary(results []models.ReportResult, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	// Ensure output path has .xlsx extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(reportsSheet); err != nil {
		return fmt.Errorf("failed to create reports sheet: %w", err)
	}

	if err := createSummarySheet(f, results); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := createReportsSheet(f, Ranked(results)); err != nil {
		return fmt.Errorf("failed to create reports sheet: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Try to save the file directly
	if err := f.SaveAs(outputPath); err != nil {
		// If direct save fails, try buffer write fallback
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}
		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return nil
}

// Ranked returns a copy ordered by score, highest first. Failed reports go last;
// ties keep their batch order.
func Ranked(results []models.ReportResult) []models.ReportResult {
	ranked := make([]models.ReportResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		fi, fj := ranked[i].Error != "", ranked[j].Error != ""
		if fi != fj {
			return !fi
		}
		return ranked[i].LLMScore > ranked[j].LLMScore
	})
	return ranked
}

// Stats summarises the successful reports of a batch
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	Average   float64
	Median    float64
	StdDev    float64
	Highest   float64
	Lowest    float64
	Bands     []int // counts per band, in band order
}

// Summarize computes the statistics shown on the Summary sheet
func Summarize(results []models.ReportResult) Stats {
	s := Stats{Total: len(results), Bands: make([]int, len(bands))}
	scores := make(stats.Float64Data, 0, len(results))
	for _, r := range results {
		if r.Error != "" {
			s.Failed++
			continue
		}
		s.Succeeded++
		scores = append(scores, r.LLMScore)
		s.Bands[bandIndex(r)]++
	}
	if len(scores) == 0 {
		return s
	}

	// errors only occur on empty input
	s.Average, _ = stats.Mean(scores)
	s.Median, _ = stats.Median(scores)
	s.StdDev, _ = stats.StandardDeviation(scores)
	s.Highest, _ = stats.Max(scores)
	s.Lowest, _ = stats.Min(scores)
	return s
}

func createSummarySheet(f *excelize.File, results []models.ReportResult) error {
	sheet := summarySheet
	f.SetColWidth(sheet, "A", "A", 32)
	f.SetColWidth(sheet, "B", "B", 30)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2B3D4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	section := func(title string) {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), title)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
		f.MergeCell(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
		row++
	}
	line := func(label string, value interface{}) {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), label)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), value)
		row++
	}

	summary := Summarize(results)

	section("Interview Report Summary")
	row++
	line("Generated:", time.Now().Format("2006-01-02 15:04:05"))
	line("Records:", summary.Total)
	line("Reports generated:", summary.Succeeded)
	line("Failed:", summary.Failed)
	row++

	if summary.Succeeded == 0 {
		return nil
	}

	section("Suitability against average")
	for i, b := range bands {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{b.fill}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), b.label)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), summary.Bands[i])
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), style)
		row++
	}
	row++

	section("Scores")
	line("Average Score:", fmt.Sprintf("%.2f", summary.Average))
	line("Median Score:", fmt.Sprintf("%.2f", summary.Median))
	line("Standard Deviation:", fmt.Sprintf("%.2f", summary.StdDev))
	line("Highest Score:", fmt.Sprintf("%.2f", summary.Highest))
	line("Lowest Score:", fmt.Sprintf("%.2f", summary.Lowest))
	line("Score Range:", fmt.Sprintf("%.2f", summary.Highest-summary.Lowest))

	return nil
}

func createReportsSheet(f *excelize.File, results []models.ReportResult) error {
	sheet := reportsSheet
	widths := map[string]float64{"A": 8, "B": 25, "C": 25, "D": 10, "E": 12, "F": 12, "G": 10, "H": 14, "I": 50}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2B3D4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	rowStyles := make([]int, len(bands))
	linkStyles := make([]int, len(bands))
	for i, b := range bands {
		if rowStyles[i], err = fillStyle(f, b.fill, false); err != nil {
			return err
		}
		if linkStyles[i], err = fillStyle(f, b.fill, true); err != nil {
			return err
		}
	}
	failedStyle, err := fillStyle(f, failedFill, false)
	if err != nil {
		return err
	}

	headers := []string{"Rank", "Person", "Interview", "Kind", "Score", "Average", "Delta", "PDF", "Error"}
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	rank := 0
	for i, result := range results {
		row := i + 2
		failed := result.Error != ""

		if !failed {
			rank++
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), rank)
		}
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), result.PersonName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), result.InterviewName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), result.Kind.String())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), fmt.Sprintf("%.2f", result.LLMScore))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), fmt.Sprintf("%.2f", result.AvgLLMScore))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), fmt.Sprintf("%+.2f", result.Delta()))
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), result.Error)

		style, linkStyle := failedStyle, failedStyle
		if !failed {
			idx := bandIndex(result)
			style, linkStyle = rowStyles[idx], linkStyles[idx]
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), style)

		if result.PDFPath != "" {
			cell := fmt.Sprintf("H%d", row)
			absPath, err := filepath.Abs(result.PDFPath)
			if err != nil {
				absPath = result.PDFPath
			}
			f.SetCellValue(sheet, cell, "Open PDF")
			fileURL := "file:///" + strings.TrimPrefix(strings.ReplaceAll(absPath, "\\", "/"), "/")
			f.SetCellHyperLink(sheet, cell, fileURL, "External")
			f.SetCellStyle(sheet, cell, cell, linkStyle)
		}
	}

	if len(results) > 0 {
		f.AutoFilter(sheet, fmt.Sprintf("A1:I%d", len(results)+1), []excelize.AutoFilterOptions{})
	}

	// Freeze top row
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}

func fillStyle(f *excelize.File, fill string, link bool) (int, error) {
	style := &excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Border: thinBorder,
	}
	if link {
		style.Font = &excelize.Font{Color: "0563C1", Underline: "single"}
	}
	return f.NewStyle(style)
}

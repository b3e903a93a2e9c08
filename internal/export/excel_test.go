package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/interview-report-agent/internal/models"
)

func sampleResults() []models.ReportResult {
	return []models.ReportResult{
		{PersonName: "Ali", InterviewName: "Backend", Kind: models.CandidateReport, LLMScore: 72, AvgLLMScore: 70, PDFPath: "out/Ali_Backend_Rapor.pdf"},
		{PersonName: "Ayşe", InterviewName: "Backend", Kind: models.CandidateReport, LLMScore: 81, AvgLLMScore: 70, PDFPath: "out/Ayşe_Backend_Rapor.pdf"},
		{PersonName: "Can", InterviewName: "Satış", Kind: models.CustomerReport, LLMScore: 60, AvgLLMScore: 70, PDFPath: "out/Can_Satış_Rapor.pdf"},
		{PersonName: "Deniz", InterviewName: "Backend", Kind: models.CandidateReport, LLMScore: 99, AvgLLMScore: 70, Error: "LLM quota"},
	}
}

func TestExportSummary_EnsuresXlsxExtension(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "summary")
	require.NoError(t, ExportSummary(sampleResults(), outputPath))

	_, err := os.Stat(outputPath + ".xlsx")
	assert.NoError(t, err)
}

func TestExportSummary_HandlesExistingXlsxExtension(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "nested", "summary.xlsx")
	require.NoError(t, ExportSummary(sampleResults(), outputPath))

	_, err := os.Stat(outputPath)
	assert.NoError(t, err)
	_, err = os.Stat(outputPath + ".xlsx")
	assert.True(t, os.IsNotExist(err))
}

func TestExportSummary_Contents(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, ExportSummary(sampleResults(), outputPath))

	f, err := excelize.OpenFile(outputPath)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Reports"}, f.GetSheetList())

	rows, err := f.GetRows("Reports")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Rank", "Person", "Interview", "Kind", "Score", "Average", "Delta", "PDF", "Error"}, rows[0])

	// ranked by score, the failed report last and unranked
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Ayşe", rows[1][1])
	assert.Equal(t, "+11.00", rows[1][6])
	assert.Equal(t, "Open PDF", rows[1][7])
	assert.Equal(t, "Ali", rows[2][1])
	assert.Equal(t, "Can", rows[3][1])
	assert.Equal(t, "musteri", rows[3][3])
	assert.Equal(t, "-10.00", rows[3][6])
	assert.Equal(t, "", rows[4][0])
	assert.Equal(t, "Deniz", rows[4][1])
	assert.Equal(t, "LLM quota", rows[4][8])

	ok, link, err := f.GetCellHyperLink("Reports", "H2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, link, "Ayşe_Backend_Rapor.pdf")

	records, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "4", records)
}

func TestExportSummary_EmptyResults(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, ExportSummary(nil, outputPath))

	f, err := excelize.OpenFile(outputPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Reports")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResults())

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 71.0, s.Average, 1e-9)
	assert.InDelta(t, 72.0, s.Median, 1e-9)
	assert.InDelta(t, 8.6023, s.StdDev, 1e-4)
	assert.Equal(t, 81.0, s.Highest)
	assert.Equal(t, 60.0, s.Lowest)
	// 81 vs 70 well above, 72 vs 70 around, 60 vs 70 well below
	assert.Equal(t, []int{1, 0, 1, 0, 1}, s.Bands)
}

func TestSummarizeAllFailed(t *testing.T) {
	s := Summarize([]models.ReportResult{{PersonName: "Ali", Error: "boom"}})

	assert.Equal(t, 1, s.Failed)
	assert.Zero(t, s.Succeeded)
	assert.Zero(t, s.Average)
	assert.Zero(t, s.Highest)
}

func TestRankedDoesNotModifyInput(t *testing.T) {
	in := sampleResults()
	out := Ranked(in)

	assert.Equal(t, "Ali", in[0].PersonName)
	assert.Equal(t, "Ayşe", out[0].PersonName)
	assert.Equal(t, "Deniz", out[3].PersonName)
}

func TestBandIndex(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{75, 0},
		{73, 1},
		{70, 2},
		{66, 3},
		{50, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bandIndex(models.ReportResult{LLMScore: tt.score, AvgLLMScore: 70}))
	}
}

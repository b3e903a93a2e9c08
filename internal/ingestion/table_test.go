package ingestion

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("data.csv"))
	assert.True(t, IsSupported("DATA.XLSX"))
	assert.False(t, IsSupported("data.xls"))
	assert.False(t, IsSupported("report.pdf"))
	assert.False(t, IsSupported("noext"))
}

func TestParseTableCSV(t *testing.T) {
	data := csvOf(testRow("Ayşe", "Backend", "Neden biz?", "Çünkü", "0"))

	table, err := ParseTable("metrics.csv", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, testHeader, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Ayşe", table.Rows[0]["kisi_adi"])
	assert.Equal(t, "Neden biz?", table.Rows[0]["soru"])
	assert.Empty(t, table.MissingColumns())
}

func TestParseTableSemicolonAndBOM(t *testing.T) {
	data := "\xef\xbb\xbf" + strings.ReplaceAll(csvOf(testRow("Ali", "Satış", "S", "C", "1")), ",", ";")

	table, err := ParseTable("metrics.csv", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "kisi_adi", table.Headers[0])
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Satış", table.Rows[0]["mulakat_adi"])
}

func TestParseTableSkipsBlankRows(t *testing.T) {
	data := csvOf(testRow("Ali", "Satış", "S", "C", "1")) + ",,,\n\n"

	table, err := ParseTable("metrics.csv", strings.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

func TestParseTableSanitizesUTF8(t *testing.T) {
	data := "kisi_adi\n" + "Before" + string([]byte{0xFF}) + "After\n"

	table, err := ParseTable("metrics.csv", strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Before�After", table.Rows[0]["kisi_adi"])
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     string
		want     error
	}{
		{name: "empty csv", filename: "a.csv", body: "", want: ErrEmptyFile},
		{name: "whitespace csv", filename: "a.csv", body: " \n\t", want: ErrEmptyFile},
		{name: "pdf upload", filename: "a.pdf", body: "%PDF-1.7", want: ErrUnsupportedFormat},
		{name: "txt upload", filename: "a.txt", body: "hello", want: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable(tt.filename, strings.NewReader(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseTableXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]string{testHeader, testRow("Zeynep", "Mobil", "Soru", "Cevap", "0")}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := ParseTable("metrics.xlsx", &buf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Zeynep", table.Rows[0]["kisi_adi"])
	assert.Equal(t, "78.456", table.Rows[0]["llm_skoru"])
}

func TestParseTableXLSXReadsStoredNumbers(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(testHeader))
	for i, h := range testHeader {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))

	row := []interface{}{
		"Zeynep", "Mobil", 78.456,
		40.123, 5, 1, 2, 3, 4, 44.877,
		35, 50, 12.346, 3, 10, 2,
		"Soru", "Cevap", 0, 70.5,
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &row))

	// whole-number display format on the score and first emotion
	style, err := f.NewStyle(&excelize.Style{NumFmt: 1})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "C2", "D2", style))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := ParseTable("metrics.xlsx", &buf)
	require.NoError(t, err)

	rec, err := FirstRecord(table)
	require.NoError(t, err)
	assert.Equal(t, 78.46, rec.LLMScore)
	assert.Equal(t, 40.12, rec.Emotion("duygu_mutlu_%"))
	assert.Equal(t, 70.5, rec.AvgLLMScore)
}

func TestParseTableCorruptXLSX(t *testing.T) {
	_, err := ParseTable("metrics.xlsx", strings.NewReader("definitely not a zip"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Contains(t, err.Error(), "failed to open Excel file")
}

func TestMissingColumnsError(t *testing.T) {
	table := &Table{Headers: []string{"kisi_adi", "mulakat_adi"}}
	missing := table.MissingColumns()

	assert.Equal(t, RequiredColumns[2:], missing)

	err := &MissingColumnsError{Columns: []string{"tip", "soru"}}
	assert.Equal(t, "CSV dosyasında eksik sütunlar var: tip, soru", err.Error())
}

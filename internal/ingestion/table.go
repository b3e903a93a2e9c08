package ingestion

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are neither CSV nor XLSX
	ErrUnsupportedFormat = errors.New("Hatalı dosya formatı. Lütfen bir .csv dosyası yükleyin.")
	// ErrEmptyFile is returned when the upload has no content at all
	ErrEmptyFile = errors.New("Yüklenen CSV dosyası boş.")
	// ErrNoRows is returned when the table has a header but no data rows
	ErrNoRows = errors.New("CSV dosyası veri içermiyor.")
)

// RequiredColumns must be present in every uploaded table
var RequiredColumns = []string{
	"kisi_adi",
	"mulakat_adi",
	"llm_skoru",
	"duygu_mutlu_%",
	"duygu_kizgin_%",
	"duygu_igrenme_%",
	"duygu_korku_%",
	"duygu_uzgun_%",
	"duygu_saskin_%",
	"duygu_dogal_%",
	"ekran_disi_sure_sn",
	"ekran_disi_sayisi",
	"soru",
	"cevap",
	"tip",
	"avg_llm_skoru",
}

// MissingColumnsError lists required columns absent from the header
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("CSV dosyasında eksik sütunlar var: %s", strings.Join(e.Columns, ", "))
}

// Table is a header plus rows keyed by column name
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Has reports whether the header contains the column
func (t *Table) Has(column string) bool {
	for _, h := range t.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// MissingColumns returns the required columns absent from the header, in order
func (t *Table) MissingColumns() []string {
	var missing []string
	for _, col := range RequiredColumns {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// IsSupported reports whether the file name has an extension ParseTable reads
func IsSupported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx":
		return true
	default:
		return false
	}
}

// ParseTable reads a CSV or XLSX table, chosen by the file name's extension
func ParseTable(filename string, r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(data)
	case ".xlsx":
		rows, err = readXLSX(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	return buildTable(rows), nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// sniffDelimiter picks ';' for spreadsheet exports that use it, ',' otherwise
func sniffDelimiter(data []byte) rune {
	header := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		header = data[:idx]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	// raw values: displayed text is already rounded by the cell's number format
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func buildTable(rows [][]string) *Table {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	table := &Table{Headers: headers}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rowData := make(map[string]string, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = sanitizeUTF8(strings.TrimSpace(cell))
			}
		}
		table.Rows = append(table.Rows, rowData)
	}
	return table
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid byte sequences so prompts stay valid UTF-8
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

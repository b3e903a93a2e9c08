package ingestion

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fmuoria/interview-report-agent/internal/models"
)

// ValueError reports a cell that could not be read as a number
type ValueError struct {
	Column string
	Row    int // 1-based data row
	Value  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%d. satırdaki %q sütunu sayısal değil: %q", e.Row, e.Column, e.Value)
}

// KindError reports a report type other than candidate (0) or customer (1)
type KindError struct {
	Row  int
	Kind int
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%d. satırda geçersiz rapor tipi: %d (0 veya 1 olmalı)", e.Row, e.Kind)
}

// Records validates the table and groups its rows into interview records.
// Rows sharing a person and interview name form one record: the first row
// supplies the metrics and every row with a question adds a Q&A item.
func Records(t *Table) ([]models.InterviewRecord, error) {
	if missing := t.MissingColumns(); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	if len(t.Rows) == 0 {
		return nil, ErrNoRows
	}

	var records []models.InterviewRecord
	index := make(map[string]int)

	for i, row := range t.Rows {
		key := groupKey(row)
		pos, seen := index[key]
		if !seen {
			rec, err := parseRecord(row, i+1)
			if err != nil {
				return nil, err
			}
			index[key] = len(records)
			records = append(records, rec)
			continue
		}
		if qa, ok := parseQA(row); ok {
			records[pos].QA = append(records[pos].QA, qa)
		}
	}

	return records, nil
}

// FirstRecord returns the record built from the table's first data row.
// Only rows of that person and interview are read; later groups are not validated.
func FirstRecord(t *Table) (models.InterviewRecord, error) {
	first := &Table{Headers: t.Headers}
	if len(t.Rows) > 0 {
		key := groupKey(t.Rows[0])
		for _, row := range t.Rows {
			if groupKey(row) == key {
				first.Rows = append(first.Rows, row)
			}
		}
	}

	records, err := Records(first)
	if err != nil {
		return models.InterviewRecord{}, err
	}
	return records[0], nil
}

func groupKey(row map[string]string) string {
	return row["kisi_adi"] + "\x00" + row["mulakat_adi"]
}

func parseRecord(row map[string]string, line int) (models.InterviewRecord, error) {
	p := rowParser{row: row, line: line}

	rec := models.InterviewRecord{
		PersonName:          row["kisi_adi"],
		InterviewName:       row["mulakat_adi"],
		LLMScore:            p.float("llm_skoru"),
		AvgLLMScore:         p.float("avg_llm_skoru"),
		OffScreenSeconds:    p.float("ekran_disi_sure_sn"),
		AvgOffScreenSeconds: p.float("avg_ekran_disi_sure_sn"),
		OffScreenCount:      p.int("ekran_disi_sayisi"),
		AvgOffScreenCount:   p.int("avg_ekran_disi_sayisi"),
		Emotions:            make(map[string]float64, 2*len(models.Emotions)),
	}
	for _, e := range models.Emotions {
		rec.Emotions[e.Key] = p.float(e.Key)
		rec.Emotions[e.AvgKey] = p.float(e.AvgKey)
	}
	kind := p.int("tip")
	if p.err != nil {
		return models.InterviewRecord{}, p.err
	}

	rec.Kind = models.ReportKind(kind)
	if !rec.Kind.Valid() {
		return models.InterviewRecord{}, &KindError{Row: line, Kind: kind}
	}

	rec.QA = []models.QA{}
	if qa, ok := parseQA(row); ok {
		rec.QA = append(rec.QA, qa)
	}
	return rec, nil
}

func parseQA(row map[string]string) (models.QA, bool) {
	qa := models.QA{Question: row["soru"], Answer: row["cevap"]}
	return qa, qa.Question != "" || qa.Answer != ""
}

// rowParser reads numeric cells and keeps the first failure
type rowParser struct {
	row  map[string]string
	line int
	err  error
}

// float parses a cell rounded to two decimals
func (p *rowParser) float(column string) float64 {
	return round2(p.number(column))
}

// int parses a cell and truncates it toward zero
func (p *rowParser) int(column string) int {
	return int(p.number(column))
}

// number parses a cell; absent or empty cells read as 0
func (p *rowParser) number(column string) float64 {
	raw := strings.TrimSpace(p.row[column])
	if raw == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && strings.Count(raw, ",") == 1 && !strings.Contains(raw, ".") {
		// decimal comma, as Turkish spreadsheets export it
		v, err = strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.err = &ValueError{Column: column, Row: p.line, Value: raw}
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

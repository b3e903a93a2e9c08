package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"text/template"

	"github.com/fmuoria/interview-report-agent/internal/models"
)

// ErrInvalidKind is returned for report kinds other than candidate and customer
var ErrInvalidKind = errors.New("invalid report kind")

// SuitabilityPlaceholder marks where the candidate suitability section goes
const SuitabilityPlaceholder = "{{uygunluk_degerlendirmesi_bolumu}}"

//go:embed templates/*.tmpl
var templateFS embed.FS

// The report keeps literal {{...}} placeholders for the model to fill,
// so our own actions use [[ ]].
var templates = template.Must(
	template.New("prompt").
		Delims("[[", "]]").
		Funcs(template.FuncMap{
			"num":      FormatNumber,
			"emotions": formatEmotions,
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

type reportData struct {
	PersonName       string
	QAHTML           string
	SuitabilityColor string
}

type instructionData struct {
	Record           models.InterviewRecord
	SuitabilityColor string
	Template         string
}

// SuitabilityColor maps a score to a colour by its distance from the average
func SuitabilityColor(score, avg float64) string {
	switch {
	case score >= avg+5:
		return "#27ae60"
	case score >= avg+2.5:
		return "#8bc34a"
	case score >= avg-2.5:
		return "#ffc107"
	case score >= avg-5:
		return "#ff9800"
	default:
		return "#f44336"
	}
}

// FormatQA renders the question and answer blocks of section 4
func FormatQA(items []models.QA) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("\n        <div class=\"qa-item\" style=\"margin-bottom: 15px; padding: 12px; border: 1px solid #e0e0e0; border-radius: 8px;\">\n")
		sb.WriteString(fmt.Sprintf("            <p style=\"font-weight: bold; color: #34495e;\">Soru: %s</p>\n", html.EscapeString(item.Question)))
		sb.WriteString(fmt.Sprintf("            <p style=\"color: #555; margin-top: 5px;\">Cevap: %s</p>\n", html.EscapeString(item.Answer)))
		sb.WriteString("        </div>\n        ")
	}
	return sb.String()
}

// Build returns the full instruction prompt for the record's report kind
func Build(record models.InterviewRecord) (string, error) {
	var name string
	switch record.Kind {
	case models.CandidateReport:
		name = "candidate.tmpl"
	case models.CustomerReport:
		name = "customer.tmpl"
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidKind, int(record.Kind))
	}

	color := SuitabilityColor(record.LLMScore, record.AvgLLMScore)

	report, err := execute("report.html.tmpl", reportData{
		PersonName:       record.PersonName,
		QAHTML:           FormatQA(record.QA),
		SuitabilityColor: color,
	})
	if err != nil {
		return "", err
	}

	return execute(name, instructionData{
		Record:           record,
		SuitabilityColor: color,
		Template:         report,
	})
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// FormatNumber prints a metric the way the data table shows it: shortest
// representation, with a trailing ".0" for whole numbers.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func formatEmotions(record models.InterviewRecord) string {
	parts := make([]string, 0, len(models.Emotions))
	for _, e := range models.Emotions {
		parts = append(parts, e.Name+" "+FormatNumber(record.Emotion(e.Key)))
	}
	return strings.Join(parts, ", ")
}

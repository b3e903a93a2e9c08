// Package chart draws the emotion bar charts embedded in interview reports.
package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fmuoria/interview-report-agent/internal/models"
)

// Output formats understood by HTML
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// NoDataHTML replaces a chart when the record carries no emotion columns
const NoDataHTML = "<p>Görselleştirilecek duygu verisi bulunamadı.</p>"

const (
	absTitle  = "Aday Duygu Analizi"
	diffTitle = "Aday Duygularının Ortalamadan Farkı"

	svgWidth   = 600
	padding    = 40
	barSpacing = 15
	baseHeight = 250 // pixels for 100 %
	minScale   = 5.0
)

type bar struct {
	name  string
	color string
	value float64
}

// HTML returns the absolute and the difference chart, in that order
func HTML(record models.InterviewRecord, format string) (string, error) {
	switch format {
	case FormatSVG, "":
		return EmotionBars(record) + EmotionDiffBars(record), nil
	case FormatPNG:
		abs, err := EmotionBarsPNG(record)
		if err != nil {
			return "", err
		}
		diff, err := EmotionDiffBarsPNG(record)
		if err != nil {
			return "", err
		}
		return abs + diff, nil
	default:
		return "", fmt.Errorf("unknown chart format %q", format)
	}
}

// absoluteBars returns the emotions present on the record, in report order
func absoluteBars(record models.InterviewRecord) []bar {
	var bars []bar
	for _, e := range models.Emotions {
		if v, ok := record.Emotions[e.Key]; ok {
			bars = append(bars, bar{name: e.Name, color: e.Color, value: v})
		}
	}
	return bars
}

// diffBars returns person minus average for every emotion; absent columns read as 0
func diffBars(record models.InterviewRecord) []bar {
	bars := make([]bar, 0, len(models.Emotions))
	for _, e := range models.Emotions {
		d := round2(record.Emotions[e.Key] - record.Emotions[e.AvgKey])
		bars = append(bars, bar{name: e.Name, color: e.Color, value: d})
	}
	return bars
}

func barWidth(n int) float64 {
	w := float64(svgWidth-2*padding-(n-1)*barSpacing) / float64(n)
	if w <= 0 {
		return 20
	}
	return w
}

// num prints a coordinate; whole numbers keep a ".0" so output is stable
// between integer and fractional layouts.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

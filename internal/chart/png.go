package chart

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fmuoria/interview-report-agent/internal/models"
)

const (
	pngWidth  = 6 * vg.Inch
	pngHeight = 3 * vg.Inch
)

// EmotionBarsPNG renders the absolute chart as an embedded PNG image
func EmotionBarsPNG(record models.InterviewRecord) (string, error) {
	bars := absoluteBars(record)
	if len(bars) == 0 {
		return NoDataHTML, nil
	}

	maxValue := minScale
	for _, b := range bars {
		maxValue = math.Max(maxValue, b.value)
	}

	p, err := barPlot(absTitle, bars, "%.1f%%")
	if err != nil {
		return "", err
	}
	p.Y.Min = 0
	p.Y.Max = maxValue * 1.15

	return pngHTML(p, absTitle)
}

// EmotionDiffBarsPNG renders the difference chart as an embedded PNG image
func EmotionDiffBarsPNG(record models.InterviewRecord) (string, error) {
	bars := diffBars(record)
	if len(bars) == 0 {
		return NoDataHTML, nil
	}

	maxAbs := minScale
	for _, b := range bars {
		maxAbs = math.Max(maxAbs, math.Abs(b.value))
	}

	p, err := barPlot(diffTitle, bars, "%+.1f%%")
	if err != nil {
		return "", err
	}
	p.Y.Min = -maxAbs * 1.2
	p.Y.Max = maxAbs * 1.2

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = color.Gray{Y: 0xcc}
	p.Add(zero)

	return pngHTML(p, diffTitle)
}

// barPlot builds one coloured bar per emotion with a value label on top
func barPlot(title string, bars []bar, labelFormat string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "%"
	p.Add(plotter.NewGrid())

	names := make([]string, len(bars))
	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(bars)),
		Labels: make([]string, len(bars)),
	}

	for i, b := range bars {
		names[i] = b.name

		chart, err := plotter.NewBarChart(plotter.Values{b.value}, vg.Points(40))
		if err != nil {
			return nil, fmt.Errorf("failed to create bar for %s: %w", b.name, err)
		}
		chart.XMin = float64(i)
		chart.Color = hexColor(b.color)
		chart.LineStyle.Width = 0
		p.Add(chart)

		labels.XYs[i] = plotter.XY{X: float64(i), Y: b.value}
		labels.Labels[i] = fmt.Sprintf(labelFormat, b.value)
	}

	valueLabels, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to create value labels: %w", err)
	}
	p.Add(valueLabels)
	p.NominalX(names...)

	return p, nil
}

func pngHTML(p *plot.Plot, alt string) (string, error) {
	writer, err := p.WriterTo(pngWidth, pngHeight, "png")
	if err != nil {
		return "", fmt.Errorf("failed to create plot writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("failed to write plot to buffer: %w", err)
	}

	return fmt.Sprintf(`<div style="text-align: center; margin: 20px auto; opacity: 0.6;"><img src="data:image/png;base64,%s" alt="%s" style="width: %dpx; height: auto;"/></div>`,
		base64.StdEncoding.EncodeToString(buf.Bytes()), alt, svgWidth), nil
}

// hexColor parses "#rrggbb"; anything else falls back to light grey
func hexColor(s string) color.Color {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || len(s) != 7 {
		return color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

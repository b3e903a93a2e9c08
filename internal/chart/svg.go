package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/fmuoria/interview-report-agent/internal/models"
)

// EmotionBars draws the person's emotion percentages as an inline SVG bar chart.
// The chart grows with the largest value, never scaling below 5 %.
func EmotionBars(record models.InterviewRecord) string {
	bars := absoluteBars(record)
	if len(bars) == 0 {
		return NoDataHTML
	}

	maxValue := minScale
	for _, b := range bars {
		maxValue = math.Max(maxValue, b.value)
	}

	height := int(maxValue/100*baseHeight) + 80
	plotHeight := float64(height - 2*padding)
	bottom := float64(height - padding)
	bw := barWidth(len(bars))

	var sb strings.Builder
	writeTitle(&sb, absTitle)
	fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#ccc" stroke-width="1"/>`,
		padding, height-padding, svgWidth-padding, height-padding)

	for i := 0; i < 5; i++ {
		percent := i * 25
		y := bottom - float64(percent)/maxValue*plotHeight
		fmt.Fprintf(&sb, `<text x="%d" y="%s" font-family="IBMPlexSans" font-size="10" text-anchor="end" fill="#555">%d%%</text>`,
			padding-10, num(y+5), percent)
		writeTick(&sb, y)
	}

	for i, b := range bars {
		x := padding + float64(i)*(bw+barSpacing)
		h := b.value / maxValue * plotHeight
		y := bottom - h
		writeRect(&sb, x, y, bw, h, b.color)

		labelY := y - 5
		if labelY < 15 {
			labelY = y + 15
		}
		writeValue(&sb, x+bw/2, labelY, fmt.Sprintf("%.1f%%", b.value))
		writeName(&sb, x+bw/2, fmt.Sprintf("%d", height-padding+20), b.name)
	}

	return fmt.Sprintf(`
    <div style="text-align: center; margin: 20px auto; opacity: 0.6;">
        <svg width="%d" height="%d" viewBox="0 0 %d %d" style="background-color: #fcfcfc; border: 1px solid #eee; border-radius: 8px;">
            %s
        </svg>
    </div>
    `, svgWidth, height, svgWidth, height, sb.String())
}

// EmotionDiffBars draws person minus average per emotion around a zero
// baseline; negative differences hang below it.
func EmotionDiffBars(record models.InterviewRecord) string {
	bars := diffBars(record)
	if len(bars) == 0 {
		return NoDataHTML
	}

	maxAbs := minScale
	for _, b := range bars {
		maxAbs = math.Max(maxAbs, math.Abs(b.value))
	}

	panel := maxAbs / 100 * baseHeight
	height := int(panel*2 + padding*2)
	baseline := padding + panel
	bw := barWidth(len(bars))

	var sb strings.Builder
	writeTitle(&sb, diffTitle)
	fmt.Fprintf(&sb, `<line x1="%d" y1="%s" x2="%d" y2="%s" stroke="#ccc" stroke-width="1"/>`,
		padding, num(baseline), svgWidth-padding, num(baseline))

	for _, perc := range []float64{-maxAbs, 0, maxAbs} {
		y := baseline - perc/maxAbs*panel
		fmt.Fprintf(&sb, `<text x="%d" y="%s" font-family="IBMPlexSans" font-size="10" text-anchor="end" fill="#555">%.0f%%</text>`,
			padding-10, num(y+4), perc)
		writeTick(&sb, y)
	}

	for i, b := range bars {
		x := padding + float64(i)*(bw+barSpacing)
		h := math.Abs(b.value) / maxAbs * panel
		y := baseline
		labelY := y + h + 15
		if b.value >= 0 {
			y = baseline - h
			labelY = y - 5
		}
		writeRect(&sb, x, y, bw, h, b.color)
		writeValue(&sb, x+bw/2, labelY, fmt.Sprintf("%+.1f%%", b.value))
		writeName(&sb, x+bw/2, num(baseline+panel+20), b.name)
	}

	return fmt.Sprintf(`<div style="text-align:center;margin:20px auto;opacity:0.6;">`+
		`<svg width="%d" height="%d" viewBox="0 0 %d %d" style="background-color:#fcfcfc;border:1px solid #eee;border-radius:8px;">`+
		`%s</svg></div>`, svgWidth, height, svgWidth, height, sb.String())
}

func writeTitle(sb *strings.Builder, title string) {
	fmt.Fprintf(sb, `<text x="%s" y="25" font-family="IBMPlexSans" font-size="12" text-anchor="middle" fill="#333" font-weight="400">%s</text>`,
		num(svgWidth/2.0), title)
}

func writeTick(sb *strings.Builder, y float64) {
	fmt.Fprintf(sb, `<line x1="%d" y1="%s" x2="%d" y2="%s" stroke="#ccc" stroke-width="0.5"/>`,
		padding, num(y), padding+5, num(y))
}

func writeRect(sb *strings.Builder, x, y, w, h float64, color string) {
	fmt.Fprintf(sb, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" rx="3" ry="3"/>`,
		num(x), num(y), num(w), num(h), color)
}

func writeValue(sb *strings.Builder, x, y float64, label string) {
	fmt.Fprintf(sb, `<text x="%s" y="%s" font-family="IBMPlexSans" font-size="12" text-anchor="middle" fill="#333" font-weight="bold">%s</text>`,
		num(x), num(y), label)
}

func writeName(sb *strings.Builder, x float64, y, name string) {
	fmt.Fprintf(sb, `<text x="%s" y="%s" font-family="IBMPlexSans" font-size="11" text-anchor="middle" fill="#555">%s</text>`,
		num(x), y, name)
}

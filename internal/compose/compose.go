// Package compose merges charts, the logo and the suitability score into the
// HTML the model returned.
package compose

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	nethtml "golang.org/x/net/html"

	"github.com/fmuoria/interview-report-agent/internal/chart"
	"github.com/fmuoria/interview-report-agent/internal/models"
	"github.com/fmuoria/interview-report-agent/internal/prompt"
)

const watermarkAlt = "Deepwork Logo Filigranı"

const suitabilitySection = `
<div class="section">
    <h2>6) Pozisyona Uygunluk Değerlendirmesi</h2>
    <p style="font-size: 24px; font-weight: bold; color: %s; text-align: left;">Pozisyona Uygunluk: %%%.0f</p>
    <p>Adayın genel mülakat performansı, teknik bilgi ve iletişim becerileri, pozisyonun gerektirdiği yetkinliklerle yüksek düzeyde örtüşmektedir. Duygu analizi ve dikkat seviyesi de olumlu bir tablo çizmektedir.</p>
</div>
`

// Assets are the pieces injected into the generated document
type Assets struct {
	Charts  string // chart markup for #bar-chart-placeholder
	LogoSrc string // data URI of the logo; empty leaves the logo slots untouched
}

// Composer prepares assets for each record and applies them
type Composer struct {
	logoPath    string
	chartFormat string
}

// NewComposer creates a composer reading the logo from logoPath
func NewComposer(logoPath, chartFormat string) *Composer {
	return &Composer{
		logoPath:    logoPath,
		chartFormat: chartFormat,
	}
}

// Compose renders the record's charts, loads the logo and merges both into raw
func (c *Composer) Compose(ctx context.Context, raw string, record models.InterviewRecord) (string, error) {
	charts, err := chart.HTML(record, c.chartFormat)
	if err != nil {
		return "", fmt.Errorf("failed to draw emotion charts: %w", err)
	}

	logo, err := LogoDataURI(c.logoPath)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("path", c.logoPath).Msg("logo not readable, watermark not added")
	}

	return Document(raw, record, Assets{Charts: charts, LogoSrc: logo})
}

// LogoDataURI reads an image file and returns it as a base64 data URI
func LogoDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("logo file %s is empty", path)
	}
	return fmt.Sprintf("data:%s;base64,%s", http.DetectContentType(data), base64.StdEncoding.EncodeToString(data)), nil
}

// Document applies the assets and the record's suitability score to raw
func Document(raw string, record models.InterviewRecord, assets Assets) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse generated HTML: %w", err)
	}

	if placeholder := doc.Find("#bar-chart-placeholder").First(); placeholder.Length() > 0 {
		placeholder.SetHtml(assets.Charts)
	}

	if assets.LogoSrc != "" {
		doc.Find("#header_logo img").First().SetAttr("src", assets.LogoSrc)
		doc.Find("#watermark-placeholder").First().AppendHtml(
			fmt.Sprintf(`<img src="%s" alt="%s"/>`, html.EscapeString(assets.LogoSrc), watermarkAlt))
	}

	color := prompt.SuitabilityColor(record.LLMScore, record.AvgLLMScore)

	if info := doc.Find("#header_info").First(); info.Length() > 0 {
		info.SetHtml(fmt.Sprintf(
			`<span class="suitability-label">Pozisyona Uygunluk:</span> <span style="color: %s;">%%%.0f</span>`,
			color, record.LLMScore))
	}

	section := ""
	if record.Kind == models.CandidateReport {
		section = fmt.Sprintf(suitabilitySection, color, record.LLMScore)
	}
	replaceSuitability(doc, section)

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialise report HTML: %w", err)
	}
	return out, nil
}

// replaceSuitability swaps every text occurrence of the suitability
// placeholder for section; an empty section removes it.
func replaceSuitability(doc *goquery.Document, section string) {
	doc.Find("*").Contents().FilterFunction(func(_ int, s *goquery.Selection) bool {
		n := s.Get(0)
		return n.Type == nethtml.TextNode && strings.Contains(n.Data, prompt.SuitabilityPlaceholder)
	}).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if section == "" {
			n.Data = strings.ReplaceAll(n.Data, prompt.SuitabilityPlaceholder, "")
			return
		}
		parts := strings.Split(n.Data, prompt.SuitabilityPlaceholder)
		for i := range parts {
			parts[i] = html.EscapeString(parts[i])
		}
		s.ReplaceWithHtml(strings.Join(parts, section))
	})
}

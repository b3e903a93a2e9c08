package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fmuoria/interview-report-agent/internal/compose"
	"github.com/fmuoria/interview-report-agent/internal/config"
	"github.com/fmuoria/interview-report-agent/internal/llm"
	"github.com/fmuoria/interview-report-agent/internal/metrics"
	"github.com/fmuoria/interview-report-agent/internal/models"
	"github.com/fmuoria/interview-report-agent/internal/prompt"
	"github.com/fmuoria/interview-report-agent/internal/render"
)

// requestDelay spaces consecutive model calls in a batch
const requestDelay = 4 * time.Second

// ProgressCallback is called to report progress during batch processing
type ProgressCallback func(current, total int, message string)

// Composer merges generated HTML with the record's assets
type Composer interface {
	Compose(ctx context.Context, raw string, record models.InterviewRecord) (string, error)
}

// Report is one finished document
type Report struct {
	FileName string
	HTML     string
	PDF      []byte
}

// Options wires the pipeline stages of a ReportAgent
type Options struct {
	Generator    llm.Generator
	Composer     Composer
	Renderer     render.Renderer
	Debug        *render.DebugWriter
	Metrics      *metrics.Metrics
	RequestDelay time.Duration
}

// ReportAgent turns interview records into PDF reports
type ReportAgent struct {
	llmClient    llm.Generator
	composer     Composer
	renderer     render.Renderer
	debug        *render.DebugWriter
	metrics      *metrics.Metrics
	requestDelay time.Duration

	mu         sync.RWMutex
	progressCb ProgressCallback
}

// NewReportAgent creates an agent from explicit stages
func NewReportAgent(opts Options) *ReportAgent {
	return &ReportAgent{
		llmClient:    opts.Generator,
		composer:     opts.Composer,
		renderer:     opts.Renderer,
		debug:        opts.Debug,
		metrics:      opts.Metrics,
		requestDelay: opts.RequestDelay,
	}
}

// NewFromConfig builds the model client, composer and renderer described by cfg
func NewFromConfig(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*ReportAgent, error) {
	generator, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	return NewReportAgent(Options{
		Generator:    generator,
		Composer:     compose.NewComposer(cfg.LogoPath(), cfg.ChartFormat),
		Renderer:     render.NewCommandRenderer(cfg.PDFRenderer, cfg.AssetsDir, cfg.RenderTimeout.Duration),
		Debug:        render.NewDebugWriter(cfg.DebugHTMLDir),
		Metrics:      m,
		RequestDelay: requestDelay,
	}), nil
}

// SetProgressCallback sets the progress callback function
func (a *ReportAgent) SetProgressCallback(cb ProgressCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.progressCb = cb
}

// reportProgress calls the progress callback if set
func (a *ReportAgent) reportProgress(current, total int, message string) {
	a.mu.RLock()
	cb := a.progressCb
	a.mu.RUnlock()

	if cb != nil {
		cb(current, total, message)
	}
}

// PDFName is the download name of a record's report
func PDFName(record models.InterviewRecord) string {
	return record.BaseName() + "_Rapor.pdf"
}

// Generate runs the full pipeline for one record
func (a *ReportAgent) Generate(ctx context.Context, record models.InterviewRecord) (report Report, err error) {
	logger := log.Ctx(ctx).With().
		Str("person", record.PersonName).
		Str("interview", record.InterviewName).
		Stringer("kind", record.Kind).
		Logger()

	defer func() {
		status := metrics.StatusOK
		if err != nil {
			status = metrics.StatusFailed
		}
		a.metrics.ObserveReport(record.Kind.String(), status)
	}()

	promptText, err := prompt.Build(record)
	if err != nil {
		return Report{}, err
	}

	logger.Info().Msg("requesting report text")
	start := time.Now()
	response, err := a.llmClient.GenerateContent(ctx, promptText)
	a.metrics.ObserveLLM(time.Since(start))
	if err != nil {
		return Report{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	html, err := a.composer.Compose(ctx, llm.StripFences(response), record)
	if err != nil {
		return Report{}, fmt.Errorf("failed to compose report: %w", err)
	}

	a.debug.Write(logger.WithContext(ctx), record.BaseName(), html)

	start = time.Now()
	pdf, err := a.renderer.Render(ctx, html)
	a.metrics.ObserveRender(time.Since(start))
	if err != nil {
		return Report{}, err
	}

	logger.Info().Int("bytes", len(pdf)).Msg("report ready")
	return Report{
		FileName: PDFName(record),
		HTML:     html,
		PDF:      pdf,
	}, nil
}

// GenerateBatch renders every record into outDir, one after another.
// Failed records are logged and reported in their result; cancellation
// stops the batch and returns what was finished.
func (a *ReportAgent) GenerateBatch(ctx context.Context, records []models.InterviewRecord, outDir string) ([]models.ReportResult, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]models.ReportResult, 0, len(records))
	total := len(records)

	for i, record := range records {
		if i > 0 && a.requestDelay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(a.requestDelay):
			}
		}
		// Check for cancellation
		if err := ctx.Err(); err != nil {
			return results, err
		}

		log.Ctx(ctx).Info().Msgf("Generating report %d/%d: %s", i+1, total, record.BaseName())
		a.reportProgress(i, total, fmt.Sprintf("Generating %s (%d/%d)", record.BaseName(), i+1, total))

		result := models.ReportResult{
			PersonName:    record.PersonName,
			InterviewName: record.InterviewName,
			Kind:          record.Kind,
			LLMScore:      record.LLMScore,
			AvgLLMScore:   record.AvgLLMScore,
		}

		report, err := a.Generate(ctx, record)
		if err == nil {
			result.PDFPath, err = writePDF(outDir, report)
		}
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("record", record.BaseName()).Msg("failed to generate report")
			result.Error = err.Error()
		}
		results = append(results, result)
	}

	a.reportProgress(total, total, "Processing complete!")
	return results, nil
}

func writePDF(dir string, report Report) (string, error) {
	path := filepath.Join(dir, filepath.Base(report.FileName))
	if err := os.WriteFile(path, report.PDF, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Close cleans up resources
func (a *ReportAgent) Close() error {
	if a.llmClient != nil {
		return a.llmClient.Close()
	}
	return nil
}

package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fmuoria/interview-report-agent/internal/agent"
	"github.com/fmuoria/interview-report-agent/internal/ingestion"
	"github.com/fmuoria/interview-report-agent/internal/metrics"
	"github.com/fmuoria/interview-report-agent/internal/models"
	"github.com/fmuoria/interview-report-agent/internal/prompt"
)

const version = "1.0.0"

// ReportGenerator produces the PDF report for one record
type ReportGenerator interface {
	Generate(ctx context.Context, record models.InterviewRecord) (agent.Report, error)
}

// Server handles HTTP requests
type Server struct {
	reports   ReportGenerator
	metrics   *metrics.Metrics
	maxUpload int64
}

// NewServer creates a new API server
func NewServer(reports ReportGenerator, m *metrics.Metrics, maxUploadBytes int64) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Server{
		reports:   reports,
		metrics:   m,
		maxUpload: maxUploadBytes,
	}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /generate-report", s.handleGenerateReport)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return s.loggingMiddleware(mux)
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.respondError(w, http.StatusNotFound, "Not Found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Interview Report Agent",
		"version": version,
		"endpoints": map[string]string{
			"POST /generate-report": "Upload a CSV (field 'file') and download the PDF report",
			"GET /health":           "Health check",
			"GET /metrics":          "Prometheus metrics",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// handleGenerateReport narrates the first interview of the uploaded table
// and streams the PDF back as an attachment
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !ingestion.IsSupported(header.Filename) {
		s.respondError(w, http.StatusBadRequest, ingestion.ErrUnsupportedFormat.Error())
		return
	}

	logger := log.Ctx(r.Context())

	table, err := ingestion.ParseTable(header.Filename, file)
	if err == nil {
		var record models.InterviewRecord
		record, err = ingestion.FirstRecord(table)
		if err == nil {
			logger.Info().Str("file", header.Filename).Stringer("kind", record.Kind).Msg("processing record")
			s.generate(w, r, record)
			return
		}
	}

	if isClientError(err) {
		logger.Warn().Err(err).Str("file", header.Filename).Msg("rejected upload")
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondServerError(w, r, err)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, record models.InterviewRecord) {
	report, err := s.reports.Generate(r.Context(), record)
	if err != nil {
		s.respondServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", ContentDisposition(report.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.PDF)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.PDF); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to write PDF response")
	}
}

// isClientError reports whether err was caused by the uploaded table
func isClientError(err error) bool {
	var (
		missing *ingestion.MissingColumnsError
		value   *ingestion.ValueError
		kind    *ingestion.KindError
		parse   *csv.ParseError
	)
	return errors.Is(err, ingestion.ErrEmptyFile) ||
		errors.Is(err, ingestion.ErrNoRows) ||
		errors.Is(err, ingestion.ErrUnsupportedFormat) ||
		errors.Is(err, prompt.ErrInvalidKind) ||
		errors.As(err, &missing) ||
		errors.As(err, &value) ||
		errors.As(err, &kind) ||
		errors.As(err, &parse)
}

// ContentDisposition builds an attachment header carrying a UTF-8 file name
func ContentDisposition(filename string) string {
	return "attachment; filename*=UTF-8''" + percentEncode(filename)
}

// percentEncode escapes every byte outside the unreserved URI characters
func percentEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

func (s *Server) respondServerError(w http.ResponseWriter, r *http.Request, err error) {
	log.Ctx(r.Context()).Error().Err(err).Msg("report generation failed")
	s.respondError(w, http.StatusInternalServerError,
		fmt.Sprintf("Rapor oluşturulurken sunucuda bir hata oluştu: %v", err))
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to encode JSON response")
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"detail": message,
	})
}

// statusRecorder remembers the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware tags each request with an id and logs it with its latency
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		latency := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(r.Method, route, rec.status, latency)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", rec.status).
			Dur("latency", latency).
			Msg("request")
	})
}

// Package render turns report HTML into PDF bytes.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Renderer converts a complete HTML document to PDF
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// CommandRenderer pipes HTML through an external converter, WeasyPrint by default.
// The document is written to stdin and the PDF read from stdout.
type CommandRenderer struct {
	command string
	baseURL string
	timeout time.Duration
}

// NewCommandRenderer creates a renderer resolving relative URLs (fonts,
// images) against baseURL
func NewCommandRenderer(command, baseURL string, timeout time.Duration) *CommandRenderer {
	return &CommandRenderer{
		command: command,
		baseURL: baseURL,
		timeout: timeout,
	}
}

// Args returns the converter arguments
func (r *CommandRenderer) Args() []string {
	base := r.baseURL
	if base == "" {
		base = "."
	}
	return []string{"--base-url", base, "-", "-"}
}

// Render runs the converter and returns its output
func (r *CommandRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command, r.Args()...)
	cmd.Stdin = strings.NewReader(html)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.timeout, ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, fmt.Errorf("WeasyPrint error occurred while creating PDF: %w", err)
	}
	if stdout.Len() == 0 {
		return nil, errors.New("WeasyPrint error occurred while creating PDF: empty output")
	}

	log.Ctx(ctx).Debug().
		Int("bytes", stdout.Len()).
		Dur("took", time.Since(start)).
		Msg("rendered PDF")
	return stdout.Bytes(), nil
}

// DebugWriter keeps a copy of every final HTML document next to the PDFs.
// A writer with an empty directory is disabled.
type DebugWriter struct {
	dir string
}

// NewDebugWriter creates a writer storing files in dir
func NewDebugWriter(dir string) *DebugWriter {
	return &DebugWriter{dir: dir}
}

// Dir returns the target directory; empty when disabled
func (w *DebugWriter) Dir() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// FileName is the debug file name for a "<person>_<interview>" stem
func FileName(baseName string) string {
	return baseName + "_Rapor_Debug.html"
}

// Write stores the HTML and returns the path. Failures are logged and
// reported as an empty path; they never stop a report.
func (w *DebugWriter) Write(ctx context.Context, baseName, html string) string {
	if w == nil || w.dir == "" {
		return ""
	}

	logger := log.Ctx(ctx)
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		logger.Warn().Err(err).Str("dir", w.dir).Msg("failed to create debug directory")
		return ""
	}

	path := filepath.Join(w.dir, filepath.Base(FileName(baseName)))
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to save debug HTML")
		return ""
	}

	logger.Info().Str("path", path).Msg("saved debug HTML")
	return path
}

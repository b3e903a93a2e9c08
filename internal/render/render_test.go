package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// script writes an executable shell script standing in for the converter
func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "fake-weasyprint")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestArgs(t *testing.T) {
	r := NewCommandRenderer("weasyprint", "assets", time.Minute)
	assert.Equal(t, []string{"--base-url", "assets", "-", "-"}, r.Args())

	r = NewCommandRenderer("weasyprint", "", time.Minute)
	assert.Equal(t, []string{"--base-url", ".", "-", "-"}, r.Args())
}

func TestRenderPipesStdinToStdout(t *testing.T) {
	cmd := script(t, `echo "%PDF-1.7"; cat`)
	r := NewCommandRenderer(cmd, "assets", 10*time.Second)

	out, err := r.Render(context.Background(), "<html>merhaba</html>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7\n<html>merhaba</html>", string(out))
}

func TestRenderPassesBaseURL(t *testing.T) {
	cmd := script(t, `echo "$@"`)
	r := NewCommandRenderer(cmd, "/srv/assets", 10*time.Second)

	out, err := r.Render(context.Background(), "<html></html>")
	require.NoError(t, err)
	assert.Equal(t, "--base-url /srv/assets - -\n", string(out))
}

func TestRenderFailureIncludesStderr(t *testing.T) {
	cmd := script(t, `echo "font missing" >&2; exit 3`)
	r := NewCommandRenderer(cmd, "", 10*time.Second)

	_, err := r.Render(context.Background(), "<html></html>")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "WeasyPrint error occurred while creating PDF: "))
	assert.Contains(t, err.Error(), "font missing")
}

func TestRenderEmptyOutput(t *testing.T) {
	cmd := script(t, `cat > /dev/null`)
	r := NewCommandRenderer(cmd, "", 10*time.Second)

	_, err := r.Render(context.Background(), "<html></html>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty output")
}

func TestRenderTimeout(t *testing.T) {
	cmd := script(t, `exec sleep 5`)
	r := NewCommandRenderer(cmd, "", 50*time.Millisecond)

	_, err := r.Render(context.Background(), "<html></html>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRenderMissingBinary(t *testing.T) {
	r := NewCommandRenderer(filepath.Join(t.TempDir(), "nope"), "", time.Second)
	_, err := r.Render(context.Background(), "<html></html>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WeasyPrint error occurred while creating PDF")
}

func TestDebugWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	w := NewDebugWriter(dir)

	path := w.Write(context.Background(), "Ayşe_Backend", "<html></html>")
	require.Equal(t, filepath.Join(dir, "Ayşe_Backend_Rapor_Debug.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestDebugWriterDisabled(t *testing.T) {
	assert.Empty(t, NewDebugWriter("").Write(context.Background(), "x", "<html></html>"))

	var w *DebugWriter
	assert.Empty(t, w.Write(context.Background(), "x", "<html></html>"))
}

func TestDebugWriterFailureIsNotFatal(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	// a regular file where the directory should be
	w := NewDebugWriter(file)
	assert.Empty(t, w.Write(context.Background(), "x", "<html></html>"))
}

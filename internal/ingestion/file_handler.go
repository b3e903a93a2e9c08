package ingestion

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/fmuoria/interview-report-agent/internal/models"
)

// FileHandler manages the inbox directory that batch runs read tables from
type FileHandler struct {
	inboxDir string
}

// NewFileHandler creates a new file handler
func NewFileHandler(inboxDir string) *FileHandler {
	return &FileHandler{
		inboxDir: inboxDir,
	}
}

// Dir returns the inbox directory
func (fh *FileHandler) Dir() string {
	return fh.inboxDir
}

// SaveUploadedFile saves a table into the inbox directory
func (fh *FileHandler) SaveUploadedFile(filename string, content io.Reader) (string, error) {
	// Ensure inbox directory exists
	if err := os.MkdirAll(fh.inboxDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create inbox directory: %w", err)
	}

	filePath := filepath.Join(fh.inboxDir, filepath.Base(filename))
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

// LoadRecords parses every supported table in the inbox directory.
// Files that fail to parse are logged and skipped.
func (fh *FileHandler) LoadRecords() ([]models.InterviewRecord, error) {
	files, err := os.ReadDir(fh.inboxDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.InterviewRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read inbox directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !IsSupported(file.Name()) {
			continue
		}
		names = append(names, file.Name())
	}
	sort.Strings(names)

	var records []models.InterviewRecord
	for _, name := range names {
		recs, err := LoadFile(filepath.Join(fh.inboxDir, name))
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("skipping unreadable table")
			continue
		}
		records = append(records, recs...)
	}

	return records, nil
}

// LoadFile parses a single CSV or XLSX file into interview records
func LoadFile(path string) ([]models.InterviewRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	table, err := ParseTable(filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	return Records(table)
}

// ClearInbox removes all files from the inbox directory
func (fh *FileHandler) ClearInbox() error {
	if err := os.RemoveAll(fh.inboxDir); err != nil {
		return fmt.Errorf("failed to clear inbox directory: %w", err)
	}
	return os.MkdirAll(fh.inboxDir, 0755)
}

// Package backup loads, merges and writes .jwlibrary backup archives
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/jwl-merge/internal/manifest"
	"github.com/franz/jwl-merge/internal/model"
	"github.com/franz/jwl-merge/internal/report"
	"github.com/franz/jwl-merge/internal/util"
)

// BackupFile is a loaded backup: its manifest and the rows of its store
type BackupFile struct {
	Manifest *manifest.Manifest
	Database *model.Database
	// Path is the archive the backup was loaded from, empty for merged and
	// blank backups
	Path string
}

// Name returns a short label for events and messages
func (f *BackupFile) Name() string {
	if f.Path != "" {
		return filepath.Base(f.Path)
	}
	if f.Manifest != nil {
		return f.Manifest.Name
	}
	return "backup"
}

// Config holds service configuration
type Config struct {
	Events   *report.EventLogger
	Progress report.ProgressFunc
	// Now stamps manifests and LastModified; defaults to time.Now
	Now func() time.Time
	// Concurrency bounds parallel loads; defaults to 4
	Concurrency int
	// TempDir holds extracted stores; defaults to os.TempDir()
	TempDir string
}

// Service coordinates loading, merging and writing backups
type Service struct {
	config *Config
}

// New creates a new backup service
func New(config *Config) *Service {
	if config == nil {
		config = &Config{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	return &Service{config: config}
}

// CreateBlank returns an empty backup holding only the Favorites tag
func (s *Service) CreateBlank() *BackupFile {
	s.progress("Creating blank file")

	now := s.config.Now()
	db := model.NewBlank()
	db.LastModified.Touch(now)
	return &BackupFile{
		Manifest: manifest.NewBlank(now),
		Database: db,
	}
}

func (s *Service) progress(format string, args ...interface{}) {
	util.DebugLog(format, args...)
	s.config.Progress.Send(format, args...)
}

func (s *Service) tempFile(pattern string) (string, error) {
	f, err := os.CreateTemp(s.config.TempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	return name, nil
}

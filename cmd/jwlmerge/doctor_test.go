package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/franz/jwl-merge/internal/backup"
	"github.com/franz/jwl-merge/internal/manifest"
	"github.com/franz/jwl-merge/internal/testutil"
)

func writeBackup(t *testing.T, svc *backup.Service, path string) {
	t.Helper()

	b := testutil.NewBuilder()
	b.Highlight(b.Location(40, 5, "nwtsty"))

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	file := &backup.BackupFile{Manifest: manifest.NewBlank(now), Database: b.Database()}
	if _, err := svc.Write(context.Background(), file, path, ""); err != nil {
		t.Fatalf("failed to write test backup: %v", err)
	}
}

func TestCheckSQLite(t *testing.T) {
	result := checkSQLite()

	if result.error {
		t.Errorf("SQLite check failed: %s", result.message)
	}

	if result.message == "" {
		t.Error("expected version information in message")
	}
}

func TestCheckWritableDir_Valid(t *testing.T) {
	result := checkWritableDir("Temp directory", t.TempDir(), false)

	if result.error {
		t.Errorf("writable directory check failed: %s", result.message)
	}
}

func TestCheckWritableDir_Missing(t *testing.T) {
	result := checkWritableDir("Temp directory", filepath.Join(t.TempDir(), "missing"), false)

	if !result.error {
		t.Error("expected error for missing directory")
	}
}

func TestCheckWritableDir_Create(t *testing.T) {
	newDir := filepath.Join(t.TempDir(), "artifacts")

	result := checkWritableDir("Artifacts directory", newDir, true)

	if result.error {
		t.Errorf("writable directory check failed: %s", result.message)
	}

	if _, err := os.Stat(newDir); os.IsNotExist(err) {
		t.Error("expected directory to be created")
	}
}

func TestCheckWritableDir_File(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(filePath, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := checkWritableDir("Temp directory", filePath, true)

	if !result.error {
		t.Error("expected error when path is a file, not a directory")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := checkDiskSpace(t.TempDir())

	if result.error {
		t.Errorf("disk space check failed: %s", result.message)
	}

	if result.message == "" {
		t.Error("expected message with disk space info")
	}
}

func TestCheckDiskSpace_NonExistent(t *testing.T) {
	result := checkDiskSpace("/nonexistent/path")

	// Should produce a warning (not error)
	if !result.warning {
		t.Error("expected warning for non-existent path")
	}
}

func TestCheckBackup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	svc := backup.New(&backup.Config{TempDir: t.TempDir()})

	valid := filepath.Join(dir, "phone.jwlibrary")
	writeBackup(t, svc, valid)

	broken := filepath.Join(dir, "broken.jwlibrary")
	if err := os.WriteFile(broken, []byte("not a zip"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if result := checkBackup(ctx, svc, valid); result.error || result.warning {
		t.Errorf("valid backup check failed: %s", result.message)
	}

	if result := checkBackup(ctx, svc, broken); !result.error {
		t.Error("expected error for a file that is not an archive")
	}

	if result := checkBackup(ctx, svc, filepath.Join(dir, "missing.jwlibrary")); !result.error {
		t.Error("expected error for a missing backup")
	}

	if result := checkBackup(ctx, svc, filepath.Join(dir, "notes.txt")); !result.warning {
		t.Error("expected warning for a file without the backup extension")
	}
}

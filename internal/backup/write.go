package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/jwl-merge/internal/manifest"
	"github.com/franz/jwl-merge/internal/store"
	"github.com/franz/jwl-merge/internal/util"
)

// WriteResult describes a written archive
type WriteResult struct {
	Path     string
	Hash     string
	Size     int64
	Duration time.Duration
}

// Write packages file as a backup archive at outputPath. The store schema is
// cloned from the archive at schemaDonorPath; with no donor the bundled
// schema is used. The archive is written beside outputPath and renamed into
// place, so a failed write leaves any existing output untouched.
func (s *Service) Write(ctx context.Context, file *BackupFile, outputPath, schemaDonorPath string) (*WriteResult, error) {
	start := time.Now()

	result, err := s.write(ctx, file, outputPath, schemaDonorPath)
	if err != nil {
		s.config.Events.LogWrite(outputPath, "", 0, time.Since(start), err)
		return nil, err
	}

	result.Duration = time.Since(start)
	s.config.Events.LogWrite(outputPath, result.Hash, result.Size, result.Duration, nil)
	return result, nil
}

func (s *Service) write(ctx context.Context, file *BackupFile, outputPath, schemaDonorPath string) (*WriteResult, error) {
	if file == nil || file.Manifest == nil || file.Database == nil {
		return nil, fmt.Errorf("%w: nothing to write", util.ErrUsage)
	}

	s.progress("Writing merged database file")

	workDir, err := os.MkdirTemp(s.config.TempDir, "jwlmerge-write-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	dbPath := filepath.Join(workDir, manifest.DatabaseName)
	if err := s.buildStore(ctx, file, dbPath, schemaDonorPath, workDir); err != nil {
		return nil, err
	}

	s.progress("Generating database hash")
	hash, err := util.HashFile(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash database: %w", err)
	}
	file.Manifest.UserDataBackup.Hash = hash

	s.progress("Adding database to archive")
	tmpPath := outputPath + ".tmp"
	if err := writeArchive(tmpPath, file.Manifest, dbPath, s.config.Now()); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	s.progress("Finishing")
	if err := util.RetryableRename(ctx, tmpPath, outputPath, util.DefaultRetryConfig()); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to move archive into place: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	return &WriteResult{Path: outputPath, Hash: hash, Size: info.Size()}, nil
}

// buildStore creates the store file at dbPath and fills it with file's rows
func (s *Service) buildStore(ctx context.Context, file *BackupFile, dbPath, schemaDonorPath, workDir string) error {
	var st *store.Store
	if schemaDonorPath == "" {
		created, err := store.Create(ctx, dbPath)
		if err != nil {
			return err
		}
		st = created
	} else {
		donor, err := s.extractDonor(schemaDonorPath, workDir)
		if err != nil {
			return err
		}
		clone, err := store.CreateEmptyClone(ctx, donor, dbPath)
		if err != nil {
			return err
		}
		st = clone
	}

	if err := st.Populate(ctx, file.Database); err != nil {
		st.Close()
		return fmt.Errorf("failed to populate database: %w", err)
	}
	if err := st.CheckIntegrity(ctx); err != nil {
		st.Close()
		return err
	}
	return st.Close()
}

// extractDonor extracts the store of the archive at donorPath into workDir
func (s *Service) extractDonor(donorPath, workDir string) (string, error) {
	filename := filepath.Base(donorPath)

	zr, err := zip.OpenReader(donorPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidArchive, filename, err)
	}
	defer zr.Close()

	m, err := readManifest(&zr.Reader, filename)
	if err != nil {
		return "", err
	}

	entry := findEntry(&zr.Reader, m.UserDataBackup.DatabaseName)
	if entry == nil {
		return "", fmt.Errorf("%w: could not find database entry %s in %s", ErrInvalidArchive, m.UserDataBackup.DatabaseName, filename)
	}

	donor := filepath.Join(workDir, "donor.db")
	if err := os.WriteFile(donor, nil, 0600); err != nil {
		return "", fmt.Errorf("failed to create donor file: %w", err)
	}
	if err := extractEntry(entry, donor); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidArchive, filename, err)
	}
	return donor, nil
}

func writeArchive(archivePath string, m *manifest.Manifest, dbPath string, now time.Time) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: manifest.EntryName, Method: zip.Deflate, Modified: now})
	if err != nil {
		return fmt.Errorf("failed to add manifest: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	db, err := os.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	name := m.UserDataBackup.DatabaseName
	if name == "" {
		name = manifest.DatabaseName
	}
	w, err = zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now})
	if err != nil {
		return fmt.Errorf("failed to add database: %w", err)
	}
	if _, err := io.Copy(w, db); err != nil {
		return fmt.Errorf("failed to write database: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync archive: %w", err)
	}
	return f.Close()
}

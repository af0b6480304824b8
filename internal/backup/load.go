package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"

	"github.com/franz/jwl-merge/internal/manifest"
	"github.com/franz/jwl-merge/internal/model"
	"github.com/franz/jwl-merge/internal/store"
	"github.com/franz/jwl-merge/internal/util"
)

// maxManifestSize bounds the manifest entry read into memory
const maxManifestSize = 1 << 20

// Load reads the backup archive at backupPath
func (s *Service) Load(ctx context.Context, backupPath string) (*BackupFile, error) {
	start := time.Now()

	file, err := s.load(ctx, backupPath)

	var counts model.Counts
	if file != nil {
		counts = file.Database.Counts()
	}
	s.config.Events.LogLoad(backupPath, counts, time.Since(start), err)

	if err != nil {
		return nil, &LoadError{Path: backupPath, Err: err}
	}
	return file, nil
}

func (s *Service) load(ctx context.Context, backupPath string) (*BackupFile, error) {
	if backupPath == "" {
		return nil, fmt.Errorf("%w: no backup path given", util.ErrUsage)
	}
	if _, err := os.Stat(backupPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: file does not exist: %s", util.ErrNotFound, backupPath)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", backupPath, err)
	}

	filename := filepath.Base(backupPath)
	s.progress("Loading %s", filename)

	zr, err := zip.OpenReader(backupPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, filename, err)
	}
	defer zr.Close()

	m, err := readManifest(&zr.Reader, filename)
	if err != nil {
		return nil, err
	}

	s.progress("Reading database %s", m.UserDataBackup.DatabaseName)
	dbPath, err := s.extractStore(&zr.Reader, filename, m.UserDataBackup.DatabaseName)
	if err != nil {
		return nil, err
	}
	defer os.Remove(dbPath)

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	defer st.Close()

	db, err := st.ReadDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	return &BackupFile{Manifest: m, Database: db, Path: backupPath}, nil
}

// LoadAll loads the archives concurrently and returns them in input order.
// The first failure cancels the remaining loads.
func (s *Service) LoadAll(ctx context.Context, paths []string) ([]*BackupFile, error) {
	files := make([]*BackupFile, len(paths))

	bar := s.newLoadBar(len(paths))
	var loaded atomic.Int64

	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(s.config.Concurrency).
		WithCancelOnError().
		WithFirstError()

	for i, backupPath := range paths {
		p.Go(func(ctx context.Context) error {
			file, err := s.Load(ctx, backupPath)
			if err != nil {
				return err
			}
			files[i] = file
			loaded.Add(1)
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}

	err := p.Wait()
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return nil, err
	}

	util.DebugLog("Loaded %d backups", loaded.Load())
	return files, nil
}

func (s *Service) newLoadBar(total int) *progressbar.ProgressBar {
	if total < 2 || util.IsQuiet() || !util.IsTerminal(os.Stdout) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Loading"),
		progressbar.OptionSetWidth(min(40, util.TerminalWidth(os.Stdout, 80)/2)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("backups"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// findEntry returns the archive entry with the given base name, ignoring case
func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.EqualFold(path.Base(f.Name), name) {
			return f
		}
	}
	return nil
}

func readManifest(zr *zip.Reader, filename string) (*manifest.Manifest, error) {
	entry := findEntry(zr, manifest.EntryName)
	if entry == nil {
		return nil, fmt.Errorf("%w: could not find manifest entry in %s", ErrInvalidArchive, filename)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, filename, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxManifestSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to read manifest: %v", ErrInvalidArchive, filename, err)
	}

	return manifest.Parse(filename, data)
}

// extractStore copies the named store entry to a temp file and returns its path
func (s *Service) extractStore(zr *zip.Reader, filename, databaseName string) (string, error) {
	entry := findEntry(zr, databaseName)
	if entry == nil {
		return "", fmt.Errorf("%w: could not find database entry %s in %s", ErrInvalidArchive, databaseName, filename)
	}

	tmpPath, err := s.tempFile("jwlmerge-*.db")
	if err != nil {
		return "", err
	}

	if err := extractEntry(entry, tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidArchive, filename, err)
	}

	util.DebugLog("Extracted %s to %s", databaseName, tmpPath)
	return tmpPath, nil
}

func extractEntry(entry *zip.File, dst string) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

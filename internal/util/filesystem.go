package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BackupExtension is the file extension of backup archives
const BackupExtension = ".jwlibrary"

// IsBackupFile reports whether path carries the backup extension, in any case
func IsBackupFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), BackupExtension)
}

// SameFileName compares two base names the way case-insensitive filesystems do
func SameFileName(a, b string) bool {
	return strings.EqualFold(filepath.Base(a), filepath.Base(b))
}

// CopyFile copies src to dst, replacing dst, and syncs it to disk
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("failed to sync %s: %w", dst, err)
	}
	return out.Close()
}

// CheckWritableDir verifies that files can be created in dir
func CheckWritableDir(dir string) error {
	f, err := os.CreateTemp(dir, ".jwlmerge-check-*")
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", ErrPermission, dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

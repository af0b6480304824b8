package main

import (
	"context"
	"fmt"
	"os"

	"github.com/franz/jwl-merge/internal/backup"
	"github.com/franz/jwl-merge/internal/report"
	"github.com/franz/jwl-merge/internal/store"
	"github.com/franz/jwl-merge/internal/util"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [files...]",
	Short: "Run diagnostic checks on the environment and backup files",
	Long: `Run diagnostic checks to ensure jwlmerge can operate correctly.

This command checks:
- SQLite version (built-in)
- Temporary directory is writable
- Disk space in the temporary directory
- Artifacts directory is writable
- Every backup file given can be read

Use this command to troubleshoot issues before merging.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

// lowSpace is the free space below which the temp dir gets a warning
const lowSpace = 512 << 20

func runDoctor(cmd *cobra.Command, args []string) error {
	setupLogging()

	util.InfoLog("=== JWL Merge Doctor - System Diagnostics ===")
	util.InfoLog("")

	tempDir := GetConfigString("temp-dir", os.TempDir())

	results := []checkResult{
		checkSQLite(),
		checkWritableDir("Temp directory", tempDir, false),
		checkDiskSpace(tempDir),
		checkWritableDir("Artifacts directory", util.GetArtifactsDir(), true),
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc := backup.New(&backup.Config{Events: report.NullLogger(), TempDir: tempDir})
	for _, path := range args {
		results = append(results, checkBackup(ctx, svc, path))
	}

	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before merging.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed! Ready to merge.")
	}

	return nil
}

// checkSQLite verifies the embedded SQLite reports a version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkWritableDir verifies files can be created in path. With create set,
// a missing directory is created.
func checkWritableDir(name, path string, create bool) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) || !create {
			return checkResult{
				name:    name,
				error:   true,
				message: fmt.Sprintf("cannot access %s: %v", path, err),
			}
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return checkResult{
				name:    name,
				error:   true,
				message: fmt.Sprintf("cannot create %s: %v", path, err),
			}
		}
		return checkResult{
			name:    name,
			message: fmt.Sprintf("%s (created)", path),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    name,
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	if err := util.CheckWritableDir(path); err != nil {
		return checkResult{
			name:    name,
			error:   true,
			message: err.Error(),
		}
	}

	return checkResult{
		name:    name,
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDiskSpace verifies there is room to extract and rebuild stores
func checkDiskSpace(path string) checkResult {
	avail, err := util.FreeSpace(path)
	if err != nil {
		return checkResult{
			name:    "Disk space",
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	result := checkResult{
		name:    "Disk space",
		message: fmt.Sprintf("%s available", util.FormatBytes(int64(avail))),
	}
	if avail < lowSpace {
		result.warning = true
		result.message += " (low space!)"
	}
	return result
}

// checkBackup verifies a backup file can be loaded
func checkBackup(ctx context.Context, svc *backup.Service, path string) checkResult {
	name := fmt.Sprintf("Backup %s", path)

	if !util.IsBackupFile(path) {
		return checkResult{
			name:    name,
			warning: true,
			message: fmt.Sprintf("not a %s file", util.BackupExtension),
		}
	}

	file, err := svc.Load(ctx, path)
	if err != nil {
		return checkResult{
			name:    name,
			error:   true,
			message: err.Error(),
		}
	}

	return checkResult{
		name: name,
		message: fmt.Sprintf("%q, schema %d, %s rows",
			file.Manifest.Name, file.Manifest.UserDataBackup.SchemaVersion,
			util.FormatCount(file.Database.Counts().Total())),
	}
}

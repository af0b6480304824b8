package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/franz/jwl-merge/internal/backup"
	"github.com/franz/jwl-merge/internal/merge"
	"github.com/franz/jwl-merge/internal/report"
	"github.com/franz/jwl-merge/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <file1> <file2> [files...]",
	Short: "Merge two or more backup files",
	Long: `Merge two or more JW Library backup files into a new backup.

Backups are merged in the order given. The first backup supplies the schema
and manifest of the result. Rows that reference publications no longer
accessible in their backup are removed before merging.

The output defaults to <manifest name>.jwlibrary in the current directory.
An existing output is only replaced once the new backup is complete.`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringP("output", "o", "", "output backup file (default: <manifest name>.jwlibrary)")
	mergeCmd.Flags().String("report", "", "write a Markdown summary report to this path")
	addStripFlags(mergeCmd)

	viper.BindPFlag("output", mergeCmd.Flags().Lookup("output"))
}

func addStripFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("strip-tags", false, "remove tags and tag assignments from every input")
	cmd.Flags().Bool("strip-bookmarks", false, "remove bookmarks from every input")
	cmd.Flags().Bool("strip-notes", false, "remove notes from every input")
	cmd.Flags().Bool("strip-underlining", false, "remove highlighting that is not attached to a note")
}

func stripOptions(cmd *cobra.Command) merge.StripOptions {
	var opts merge.StripOptions
	opts.Tags, _ = cmd.Flags().GetBool("strip-tags")
	opts.Bookmarks, _ = cmd.Flags().GetBool("strip-bookmarks")
	opts.Notes, _ = cmd.Flags().GetBool("strip-notes")
	opts.Underlining, _ = cmd.Flags().GetBool("strip-underlining")
	return opts
}

func runMerge(cmd *cobra.Command, args []string) error {
	setupLogging()

	if err := validateInputs(args); err != nil {
		return err
	}

	events, err := openEventLogger()
	if err != nil {
		return err
	}
	defer events.Close()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	svc := newService(events)
	opts := stripOptions(cmd)

	util.InfoLog("=== Merging %d backup files ===", len(args))
	result, err := svc.Merge(ctx, args, opts)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	outputPath := outputPathFor(GetConfigString("output", ""), result.File.Manifest.Name)
	util.InfoLog("Writing %s", outputPath)
	written, err := svc.Write(ctx, result.File, outputPath, args[0])
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	summary := buildSummary(result, written, time.Since(start))
	summary.EventLogPath = events.Path()

	if !util.IsQuiet() {
		fmt.Print(summary.Text())
	}

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		if err := report.WriteMarkdownReport(summary, reportPath); err != nil {
			return err
		}
		util.InfoLog("Report saved to: %s", reportPath)
	}

	util.SuccessLog("Merged backup written to %s (%s)", written.Path, util.FormatBytes(written.Size))
	return nil
}

// validateInputs checks every argument names an existing backup file
func validateInputs(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: specify at least two backup files to merge", util.ErrUsage)
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: could not find file %s", util.ErrUsage, arg)
			}
			return fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", util.ErrUsage, arg)
		}
		if !util.IsBackupFile(arg) {
			return fmt.Errorf("%w: %s is not a %s file", util.ErrUsage, arg, util.BackupExtension)
		}
	}
	return nil
}

// outputPathFor resolves the output flag, falling back to the manifest name
func outputPathFor(output, manifestName string) string {
	if output == "" {
		name := strings.TrimSpace(manifestName)
		if name == "" {
			name = "merged"
		}
		output = strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(name)
	}
	if !util.IsBackupFile(output) {
		output += util.BackupExtension
	}
	return filepath.Clean(output)
}

func buildSummary(result *backup.MergeResult, written *backup.WriteResult, duration time.Duration) *report.MergeSummary {
	summary := &report.MergeSummary{
		GeneratedAt:  time.Now(),
		Duration:     duration,
		OutputPath:   written.Path,
		OutputSize:   written.Size,
		Hash:         written.Hash,
		Merged:       result.File.Database.Counts(),
		Cleaned:      result.Cleaned,
		Stripped:     result.Stripped,
		Deduplicated: result.Stats.Deduplicated,
		Dropped:      result.Stats.Dropped,
	}
	for _, src := range result.Sources {
		summary.Sources = append(summary.Sources, report.SourceSummary{
			Path:   src.Path,
			Name:   src.Manifest.Name,
			Counts: src.Database.Counts(),
		})
	}
	return summary
}

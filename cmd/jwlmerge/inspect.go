package main

import (
	"fmt"
	"io"
	"os"

	"github.com/franz/jwl-merge/internal/backup"
	"github.com/franz/jwl-merge/internal/merge"
	"github.com/franz/jwl-merge/internal/report"
	"github.com/franz/jwl-merge/internal/util"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the manifest and row counts of a backup file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	setupLogging()

	ctx, cancel := signalContext()
	defer cancel()

	svc := newService(report.NullLogger())
	file, err := svc.Load(ctx, args[0])
	if err != nil {
		return err
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}

	printInspection(cmd.OutOrStdout(), file, info)
	return nil
}

func printInspection(w io.Writer, file *backup.BackupFile, info os.FileInfo) {
	m := file.Manifest
	fmt.Fprintf(w, "File:            %s (%s, modified %s)\n",
		file.Path, util.FormatBytes(info.Size()), util.FormatAge(info.ModTime()))
	fmt.Fprintf(w, "Name:            %s\n", m.Name)
	fmt.Fprintf(w, "Created:         %s\n", m.CreationDate)
	fmt.Fprintf(w, "Device:          %s\n", m.UserDataBackup.DeviceName)
	fmt.Fprintf(w, "Last modified:   %s\n", m.UserDataBackup.LastModifiedDate)
	fmt.Fprintf(w, "Manifest:        version %d, type %d\n", m.Version, m.Type)
	fmt.Fprintf(w, "Schema version:  %d\n", m.UserDataBackup.SchemaVersion)
	fmt.Fprintf(w, "Database:        %s\n", m.UserDataBackup.DatabaseName)
	fmt.Fprintf(w, "Hash:            %s\n", m.UserDataBackup.Hash)

	if err := merge.Validate(file.Database); err != nil {
		fmt.Fprintf(w, "Integrity:       %v\n", err)
	} else {
		fmt.Fprintf(w, "Integrity:       ok\n")
	}

	fmt.Fprintln(w)
	counts := file.Database.Counts()
	for _, row := range counts.Rows() {
		fmt.Fprintf(w, "  %-22s %8s\n", row.Entity, util.FormatCount(row.Count))
	}
	fmt.Fprintf(w, "  %-22s %8s\n", "Total", util.FormatCount(counts.Total()))
}

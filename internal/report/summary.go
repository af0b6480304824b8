package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/franz/jwl-merge/internal/model"
	"github.com/franz/jwl-merge/internal/util"
)

// MergeSummary describes one merge run for the summary report
type MergeSummary struct {
	GeneratedAt time.Time
	Duration    time.Duration

	Sources []SourceSummary

	// Output
	OutputPath string
	OutputSize int64
	Hash       string
	Merged     model.Counts

	// Row accounting
	Cleaned      int
	Stripped     map[string]int
	Deduplicated map[string]int
	Dropped      map[string]int

	EventLogPath string
}

// SourceSummary describes one input backup
type SourceSummary struct {
	Path   string
	Name   string
	Counts model.Counts
}

// WriteMarkdownReport writes the summary as Markdown, creating parent
// directories as needed
func WriteMarkdownReport(summary *MergeSummary, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(summary.Markdown()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Markdown renders the summary
func (s *MergeSummary) Markdown() string {
	var md strings.Builder

	md.WriteString("# JWL Merge - Summary Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05")))
	if s.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", s.EventLogPath))
	}
	md.WriteString("---\n\n")

	// Overview
	md.WriteString("## Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Sources | %d |\n", len(s.Sources)))
	md.WriteString(fmt.Sprintf("| Rows Merged | %s |\n", util.FormatCount(s.Merged.Total())))
	if s.Cleaned > 0 {
		md.WriteString(fmt.Sprintf("| Inaccessible Rows Removed | %d |\n", s.Cleaned))
	}
	if s.OutputPath != "" {
		md.WriteString(fmt.Sprintf("| Output | `%s` |\n", s.OutputPath))
		md.WriteString(fmt.Sprintf("| Size | %s |\n", util.FormatBytes(s.OutputSize)))
	}
	if s.Hash != "" {
		md.WriteString(fmt.Sprintf("| SHA-256 | `%s` |\n", s.Hash))
	}
	if s.Duration > 0 {
		md.WriteString(fmt.Sprintf("| Duration | %s |\n", s.Duration.Round(time.Millisecond)))
	}
	md.WriteString("\n")

	// Sources
	if len(s.Sources) > 0 {
		md.WriteString("## Sources\n\n")
		md.WriteString("| # | Backup | Rows |\n")
		md.WriteString("|---|--------|------|\n")
		for i, src := range s.Sources {
			md.WriteString(fmt.Sprintf("| %d | %s | %s |\n", i+1, src.label(), util.FormatCount(src.Counts.Total())))
		}
		md.WriteString("\n")
	}

	// Per entity
	md.WriteString("## Rows by Type\n\n")
	md.WriteString("| Type | Merged | Deduplicated | Dropped |\n")
	md.WriteString("|------|--------|--------------|---------|\n")
	for _, row := range s.Merged.Rows() {
		md.WriteString(fmt.Sprintf("| %s | %d | %d | %d |\n",
			row.Entity, row.Count, s.Deduplicated[row.Entity], s.Dropped[row.Entity]))
	}
	md.WriteString("\n")

	if len(s.Stripped) > 0 {
		md.WriteString("## Stripped\n\n")
		md.WriteString("| Type | Rows Removed |\n")
		md.WriteString("|------|--------------|\n")
		for _, entity := range sortedKeys(s.Stripped) {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", entity, s.Stripped[entity]))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by jwlmerge*\n")

	return md.String()
}

// Text renders a short plain-text summary for the console
func (s *MergeSummary) Text() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Merged %d backups: %s rows\n", len(s.Sources), util.FormatCount(s.Merged.Total())))
	for _, row := range s.Merged.Rows() {
		if row.Count == 0 && s.Dropped[row.Entity] == 0 {
			continue
		}
		line := fmt.Sprintf("  %-18s %6d", row.Entity, row.Count)
		if n := s.Deduplicated[row.Entity]; n > 0 {
			line += fmt.Sprintf("  (%d duplicates)", n)
		}
		if n := s.Dropped[row.Entity]; n > 0 {
			line += fmt.Sprintf("  (%d dropped)", n)
		}
		b.WriteString(line + "\n")
	}
	if s.OutputPath != "" {
		b.WriteString(fmt.Sprintf("Output: %s (%s)\n", s.OutputPath, util.FormatBytes(s.OutputSize)))
	}
	return b.String()
}

func (src SourceSummary) label() string {
	if src.Path != "" {
		return fmt.Sprintf("`%s`", truncatePath(src.Path, 60))
	}
	return src.Name
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncatePath truncates a file path to a maximum length
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	// Truncate from the middle, keeping start and end
	start := maxLen/2 - 2
	end := len(path) - (maxLen/2 - 2)
	return path[:start] + "..." + path[end:]
}

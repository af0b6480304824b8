package backup

import (
	"context"
	"time"

	"github.com/franz/jwl-merge/internal/manifest"
	"github.com/franz/jwl-merge/internal/merge"
	"github.com/franz/jwl-merge/internal/model"
)

// MergeResult is the outcome of merging backups
type MergeResult struct {
	File *BackupFile
	// Sources are the loaded inputs after stripping and cleaning
	Sources []*BackupFile
	Stats   *merge.Stats
	// Stripped counts the rows removed by the strip options, per entity group
	Stripped map[string]int
	// Cleaned counts the inaccessible rows removed from the sources
	Cleaned  int
	Duration time.Duration
}

// Merge loads the archives and merges them in the given order
func (s *Service) Merge(ctx context.Context, paths []string, opts merge.StripOptions) (*MergeResult, error) {
	if len(paths) == 0 {
		return nil, merge.ErrNoSources
	}

	s.progress("Merging %d backup files", len(paths))

	files, err := s.LoadAll(ctx, paths)
	if err != nil {
		return nil, err
	}
	return s.MergeFiles(files, opts)
}

// MergeFiles merges loaded backups. Stripping and cleaning work on copies, so
// files are left as loaded. The merged manifest is based on the first source.
func (s *Service) MergeFiles(files []*BackupFile, opts merge.StripOptions) (*MergeResult, error) {
	if len(files) == 0 {
		return nil, merge.ErrNoSources
	}

	start := time.Now()
	result := &MergeResult{Stripped: make(map[string]int)}

	names := make([]string, len(files))
	sources := make([]*model.Database, len(files))
	for i, f := range files {
		names[i] = f.Name()
		sources[i] = f.Database.Clone()
		result.Sources = append(result.Sources, &BackupFile{Manifest: f.Manifest, Database: sources[i], Path: f.Path})

		if opts.Any() {
			for entity, n := range opts.Apply(sources[i]) {
				result.Stripped[entity] += n
				s.config.Events.LogStrip(names[i], entity, n)
			}
		}

		cleaner := &merge.Cleaner{Source: names[i], Events: s.config.Events}
		if removed := cleaner.Clean(sources[i]).Total(); removed > 0 {
			result.Cleaned += removed
			s.progress("Removed %d inaccessible rows from %s", removed, names[i])
		}
	}

	s.progress("Merging databases")
	merger := merge.New(&merge.Config{
		SourceNames: names,
		Events:      s.config.Events,
		Progress:    s.config.Progress,
		Now:         s.config.Now,
	})
	merged, err := merger.Merge(sources)
	if err != nil {
		return nil, err
	}

	result.File = &BackupFile{
		Manifest: manifest.ForMerge(files[0].Manifest, s.config.Now()),
		Database: merged.Database,
	}
	result.Stats = merged.Stats
	result.Duration = time.Since(start)
	return result, nil
}

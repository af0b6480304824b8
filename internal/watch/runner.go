// Package watch merges the backups dropped into a directory into a master
// backup, one merge at a time.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/franz/jwl-merge/internal/backup"
	"github.com/franz/jwl-merge/internal/merge"
	"github.com/franz/jwl-merge/internal/report"
	"github.com/franz/jwl-merge/internal/util"
)

const (
	// MasterName is the merged backup maintained in the watched directory
	MasterName = "master.jwlibrary"
	// PreviousMasterName keeps the master from before the latest merge
	PreviousMasterName = "master.old.jwlibrary"
	// RejectedSuffix is appended to inputs that cannot be loaded
	RejectedSuffix = ".bad"

	pendingSuffix = ".next"
)

// MergeFunc merges sources in order into output, cloning the schema of donor
type MergeFunc func(ctx context.Context, sources []string, output, donor string) error

// BackupMerger returns a MergeFunc backed by the backup service
func BackupMerger(svc *backup.Service, opts merge.StripOptions) MergeFunc {
	return func(ctx context.Context, sources []string, output, donor string) error {
		result, err := svc.Merge(ctx, sources, opts)
		if err != nil {
			return err
		}
		_, err = svc.Write(ctx, result.File, output, donor)
		return err
	}
}

// Config holds runner configuration
type Config struct {
	Dir string
	// SettleDelay is waited after a change before merging, so a file being
	// copied in is complete
	SettleDelay time.Duration
	Merge       MergeFunc
	Events      *report.EventLogger
	Progress    report.ProgressFunc
}

// Runner watches a directory and keeps its master backup up to date
type Runner struct {
	config *Config
	// requests holds at most one pending merge request
	requests chan struct{}
	runs     atomic.Int64
}

// RunResult describes one completed merge
type RunResult struct {
	Sources []string
	Output  string
	// Removed lists the merged inputs deleted afterwards
	Removed []string
}

// New creates a runner for the directory in config
func New(config *Config) (*Runner, error) {
	if config.Merge == nil {
		return nil, fmt.Errorf("%w: no merge function", util.ErrInvalidConfig)
	}
	info, err := os.Stat(config.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", util.ErrNotFound, config.Dir)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", config.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", util.ErrInvalidConfig, config.Dir)
	}
	if config.SettleDelay < 0 {
		config.SettleDelay = 0
	}

	return &Runner{
		config:   config,
		requests: make(chan struct{}, 1),
	}, nil
}

// Runs returns the number of merges completed
func (r *Runner) Runs() int64 {
	return r.runs.Load()
}

// Trigger requests a merge. Requests made while one is pending coalesce.
func (r *Runner) Trigger() {
	select {
	case r.requests <- struct{}{}:
	default:
	}
}

// Run merges once at start-up and then after every relevant change in the
// directory, until ctx is cancelled
func (r *Runner) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.config.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", r.config.Dir, err)
	}
	util.InfoLog("Watching %s for backups", r.config.Dir)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.work(ctx)
	}()
	defer wg.Wait()

	r.Trigger()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if r.relevant(event) {
				util.DebugLog("Change detected: %s", event)
				r.config.Events.LogWatch(event.Name, "queue", event.Op.String())
				r.Trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			util.WarnLog("Watcher error: %v", err)
			r.config.Events.LogError(report.EventWatch, r.config.Dir, err)
		}
	}
}

func (r *Runner) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return util.IsBackupFile(event.Name) && !IsReserved(event.Name)
}

// work drains merge requests one at a time
func (r *Runner) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.requests:
		}

		if r.config.SettleDelay > 0 {
			timer := time.NewTimer(r.config.SettleDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		if _, err := r.RunOnce(ctx); err != nil {
			util.ErrorLog("Auto-merge failed: %v", err)
			r.config.Events.LogError(report.EventWatch, r.config.Dir, err)
		}
	}
}

// RunOnce merges the prior master and every input in the directory into a new
// master, then deletes the inputs it merged. Inputs that cannot be loaded are
// renamed with RejectedSuffix and the merge is retried without them. It
// returns nil when there is nothing to merge.
func (r *Runner) RunOnce(ctx context.Context) (*RunResult, error) {
	master := filepath.Join(r.config.Dir, MasterName)

	for {
		inputs, err := r.inputs()
		if err != nil {
			return nil, err
		}

		sources := inputs
		hasMaster := fileExists(master)
		if hasMaster {
			sources = append([]string{master}, inputs...)
		}

		if len(inputs) == 0 || len(sources) < 2 {
			util.DebugLog("Nothing to merge in %s (%d inputs)", r.config.Dir, len(inputs))
			r.config.Events.LogWatch(r.config.Dir, "skip", fmt.Sprintf("%d inputs", len(inputs)))
			return nil, nil
		}

		err = r.replaceMaster(ctx, sources, master, hasMaster)
		if err != nil {
			bad := unreadableInput(err, inputs)
			if bad == "" {
				return nil, err
			}
			if err := r.reject(ctx, bad, err); err != nil {
				return nil, err
			}
			continue
		}

		result := &RunResult{Sources: sources, Output: master}
		for _, input := range inputs {
			if err := util.RetryableRemove(ctx, input, util.WatchRetryConfig()); err != nil {
				util.WarnLog("Failed to remove merged input %s: %v", input, err)
				continue
			}
			result.Removed = append(result.Removed, input)
		}

		r.runs.Add(1)
		msg := fmt.Sprintf("%d backup files merged to %s", len(sources), MasterName)
		util.SuccessLog("%s", msg)
		r.config.Progress.Send("%s", msg)
		r.config.Events.LogWatch(master, "merge", msg)
		return result, nil
	}
}

// replaceMaster merges into a pending file and only then rotates the current
// master to PreviousMasterName, so a failed merge leaves both untouched
func (r *Runner) replaceMaster(ctx context.Context, sources []string, master string, hasMaster bool) error {
	pending := master + pendingSuffix
	defer os.Remove(pending)

	r.config.Progress.Send("Merging %d backup files into %s", len(sources), MasterName)
	if err := r.config.Merge(ctx, sources, pending, sources[0]); err != nil {
		return err
	}

	if hasMaster {
		previous := filepath.Join(r.config.Dir, PreviousMasterName)
		if err := util.CopyFile(master, previous); err != nil {
			return fmt.Errorf("failed to keep previous master: %w", err)
		}
	}
	if err := util.RetryableRename(ctx, pending, master, util.WatchRetryConfig()); err != nil {
		return fmt.Errorf("failed to replace master: %w", err)
	}
	return nil
}

// unreadableInput returns the input a merge failed to load, or "" when the
// failure is not down to one input's content
func unreadableInput(err error, inputs []string) string {
	var loadErr *backup.LoadError
	if !errors.As(err, &loadErr) {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, util.ErrNotFound) {
		return ""
	}
	for _, input := range inputs {
		if input == loadErr.Path {
			return input
		}
	}
	return ""
}

// reject renames an input that cannot be merged out of the watched set
func (r *Runner) reject(ctx context.Context, input string, cause error) error {
	util.WarnLog("Setting aside %s: %v", filepath.Base(input), cause)
	r.config.Events.LogWatch(input, "reject", cause.Error())

	if err := util.RetryableRename(ctx, input, input+RejectedSuffix, util.WatchRetryConfig()); err != nil {
		return fmt.Errorf("failed to set aside %s: %w", input, err)
	}
	return nil
}

// inputs lists the non-reserved backups of the directory in name order
func (r *Runner) inputs() ([]string, error) {
	entries, err := os.ReadDir(r.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.config.Dir, err)
	}

	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !util.IsBackupFile(e.Name()) || IsReserved(e.Name()) {
			continue
		}
		inputs = append(inputs, filepath.Join(r.config.Dir, e.Name()))
	}
	sort.Strings(inputs)
	return inputs, nil
}

// IsReserved reports whether path names one of the files the runner maintains
func IsReserved(path string) bool {
	return util.SameFileName(path, MasterName) || util.SameFileName(path, PreviousMasterName)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

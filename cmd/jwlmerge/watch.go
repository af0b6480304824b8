package main

import (
	"fmt"
	"path/filepath"

	"github.com/franz/jwl-merge/internal/util"
	"github.com/franz/jwl-merge/internal/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Merge backups dropped into a directory into a master backup",
	Long: `Watch a directory and merge every backup file placed in it into
master.jwlibrary.

The previous master is kept as master.old.jwlibrary. Backups are deleted once
they have been merged. Changes arriving while a merge runs are merged in the
next run.

The directory defaults to watch.dir from the config, then the current
directory. Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("settle", 0, "wait this long after a change before merging (default 2s)")
	addStripFlags(watchCmd)

	viper.BindPFlag("watch.settle", watchCmd.Flags().Lookup("settle"))
}

func runWatch(cmd *cobra.Command, args []string) error {
	setupLogging()

	dir := GetConfigString("watch.dir", ".")
	if len(args) == 1 {
		dir = args[0]
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrUsage, err)
	}

	events, err := openEventLogger()
	if err != nil {
		return err
	}
	defer events.Close()

	svc := newService(events)
	runner, err := watch.New(&watch.Config{
		Dir:         dir,
		SettleDelay: util.GetSettleDelay(),
		Merge:       watch.BackupMerger(svc, stripOptions(cmd)),
		Events:      events,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	util.InfoLog("=== Auto-merge ===")
	util.InfoLog("Directory: %s", dir)
	util.InfoLog("Master:    %s", filepath.Join(dir, watch.MasterName))
	if err := runner.Run(ctx); err != nil {
		return err
	}

	util.InfoLog("Stopped after %d merges", runner.Runs())
	return nil
}

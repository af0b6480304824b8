package main

import (
	"context"
	"fmt"
	"os"

	"github.com/franz/jwl-merge/internal/backup"
	"github.com/franz/jwl-merge/internal/util"
	"github.com/spf13/cobra"
)

var blankCmd = &cobra.Command{
	Use:   "blank [file]",
	Short: "Create an empty backup file",
	Long: `Create a backup file holding no user data except the Favorites tag.

Restoring it on a device clears its notes, highlights, bookmarks and tags.
The file defaults to blank.jwlibrary.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBlank,
}

func init() {
	rootCmd.AddCommand(blankCmd)

	blankCmd.Flags().Bool("force", false, "replace an existing file")
}

func runBlank(cmd *cobra.Command, args []string) error {
	setupLogging()

	output := "blank"
	if len(args) == 1 {
		output = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")

	ctx, cancel := signalContext()
	defer cancel()

	written, err := writeBlank(ctx, newService(nil), outputPathFor(output, ""), force)
	if err != nil {
		return err
	}

	util.SuccessLog("Blank backup written to %s (%s)", written.Path, util.FormatBytes(written.Size))
	return nil
}

func writeBlank(ctx context.Context, svc *backup.Service, output string, force bool) (*backup.WriteResult, error) {
	if _, err := os.Stat(output); err == nil && !force {
		return nil, fmt.Errorf("%w: %s already exists (use --force to replace it)", util.ErrUsage, output)
	}
	return svc.Write(ctx, svc.CreateBlank(), output, "")
}

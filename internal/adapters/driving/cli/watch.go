package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var (
	watchScope    string
	watchScanOnly bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Mirror a directory into a scope",
	Long: `Uploads every supported file in a directory, then watches it for changes.
New files are uploaded, modified files are replaced and removed files are
deleted from the scope. Hidden files and directories are ignored.

Use --once to scan the directory and exit without watching.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchScope, "scope", "s", "", "scope to mirror into (required)")
	watchCmd.Flags().BoolVar(&watchScanOnly, "once", false, "scan once and exit")
	_ = watchCmd.MarkFlagRequired("scope")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if folderSync == nil {
		return errors.New("folder sync not configured")
	}

	connector := filesystem.New(args[0])
	defer connector.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := newRenderer(cmd)
	cmd.Printf("Scanning %s into scope %s...\n", connector.Root(), watchScope)
	report, err := folderSync.Scan(ctx, connector, watchScope)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	for _, e := range report.Events {
		printSyncEvent(cmd, r, e)
	}
	cmd.Printf("%d uploaded, %d replaced, %d reprocessed, %d unchanged, %d failed\n",
		report.Count(driving.SyncUploaded), report.Count(driving.SyncReplaced),
		report.Count(driving.SyncReprocessed), report.Count(driving.SyncSkipped),
		report.Count(driving.SyncFailed))

	if watchScanOnly {
		return nil
	}

	cmd.Println(r.Muted("Watching for changes. Press Ctrl+C to stop."))
	return folderSync.Watch(ctx, connector, watchScope, func(e driving.SyncEvent) {
		printSyncEvent(cmd, r, e)
	})
}

func printSyncEvent(cmd *cobra.Command, r *renderer, e driving.SyncEvent) {
	if e.Action == driving.SyncSkipped {
		return
	}
	if e.Err != nil {
		cmd.Printf("  %-11s %s: %s\n", r.Warning(string(e.Action)), e.Path, e.Err)
		return
	}
	cmd.Printf("  %-11s %s\n", e.Action, e.Path)
}

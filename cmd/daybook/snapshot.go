package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/daybook/internal/snapshot"
	"github.com/hyperengineering/daybook/internal/worker"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Take a database snapshot now",
	Long:  "Copy the database into the snapshot directory, upload it when snapshot storage is configured, and prune old snapshots.",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotList,
}

var snapshotURLCmd = &cobra.Command{
	Use:   "url <name>",
	Short: "Print a time-limited download URL for an uploaded snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotURL,
}

func init() {
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotURLCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	uploader, err := snapshot.NewUploader(a.cfg.SnapshotStorage)
	if err != nil {
		return err
	}
	w := worker.NewSnapshotWorker(a.store, a.cfg.Snapshot.Dir, a.cfg.Snapshot.Keep,
		time.Duration(a.cfg.Snapshot.Interval), uploader)
	info, err := w.TakeSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), info)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s (%s)\n", info.Name, humanize.Bytes(uint64(info.Size)))
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	snaps, err := worker.ListSnapshots(cfg.Snapshot.Dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if snaps == nil {
			snaps = []worker.SnapshotInfo{}
		}
		return printJSON(out, map[string]any{
			"snapshots": snaps,
			"total":     len(snaps),
		})
	}

	printTitle(out, "Snapshots", len(snaps), "snapshot")
	if len(snaps) == 0 {
		printNone(out)
		return nil
	}
	tbl := newTable()
	tbl.AddRow("NAME", "SIZE", "TAKEN")
	for _, s := range snaps {
		tbl.AddRow(s.Name, humanize.Bytes(uint64(s.Size)), humanize.Time(s.TakenAt))
	}
	fmt.Fprintln(out, tbl)
	return nil
}

func runSnapshotURL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	uploader, err := snapshot.NewUploader(cfg.SnapshotStorage)
	if err != nil {
		return err
	}

	url, expiry, err := uploader.PresignedURL(cmd.Context(), args[0])
	if errors.Is(err, snapshot.ErrNotConfigured) {
		return fmt.Errorf("snapshot storage is not configured: set snapshot_storage.bucket")
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"url": url, "expires_at": expiry})
	}
	fmt.Fprintln(cmd.OutOrStdout(), url)
	faintStyle.Fprintf(cmd.ErrOrStderr(), "expires %s\n", humanize.Time(expiry))
	return nil
}

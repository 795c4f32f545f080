package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cabin-network-backend/internal/inventory"
)

var reportFilter inventory.ReportFilter

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the workstation report as CSV to stdout",
	RunE:  runReport,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print inventory totals as JSON",
	RunE:  runStats,
}

func init() {
	reportCmd.Flags().StringVar(&reportFilter.Zone, "zone", inventory.FilterAll, "Zone to include (RA, RB or all)")
	reportCmd.Flags().StringVar(&reportFilter.Switch, "switch", "", "Only workstations wired to this uplink device")
	reportCmd.Flags().StringVar(&reportFilter.Status, "status", inventory.FilterAll, "connected, offline or all")
}

func withBackend(fn func(ctx context.Context, b *backend) error) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	// One-shot commands only read; the checkpoint is not rewritten.
	b.checkpointer = nil
	defer b.close(ctx)
	return fn(ctx, b)
}

func runReport(cmd *cobra.Command, args []string) error {
	return withBackend(func(ctx context.Context, b *backend) error {
		snap, err := b.snapshot(ctx)
		if err != nil {
			return err
		}
		rows := inventory.FilterRows(inventory.Rows(snap), reportFilter)
		return inventory.WriteCSV(os.Stdout, rows)
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withBackend(func(ctx context.Context, b *backend) error {
		snap, err := b.snapshot(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(inventory.ComputeStats(snap))
	})
}

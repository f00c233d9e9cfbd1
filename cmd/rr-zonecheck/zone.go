package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-zonecheck/internal/dns/repos/zone"
	"github.com/haukened/rr-zonecheck/internal/dns/repos/zonestore"
	"github.com/haukened/rr-zonecheck/internal/dns/services/engine"
)

func newZoneCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zone",
		Short: "Zone file commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [dir]",
		Short: "Validate every zone file in a directory",
		Long:  "Loads all zone files from dir (or the configured zone directory) and\nvalidates each record against the rest of its zone. Exits non-zero when\nany record is rejected.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runE(a.checkZones),
	})
	return cmd
}

func (a *app) checkZones(cmd *cobra.Command, args []string) error {
	dir := a.cfg.ZoneDir
	if len(args) == 1 {
		dir = args[0]
	}

	files, err := zone.LoadZoneDirectory(dir)
	if err != nil {
		return fmt.Errorf("failed to load zone directory: %w", err)
	}

	store := zonestore.New(a.engine, a.logger)
	out := cmd.OutOrStdout()
	failed := 0
	for _, f := range files {
		report := store.LoadZone(f.Zone, f.Records)
		printZoneReport(out, f.Zone.Name, report)
		if len(report.Rejected) > 0 {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d zones have rejected records", failed, len(files))
	}
	fmt.Fprintf(out, "%d zones ok\n", len(files))
	return nil
}

func printZoneReport(w io.Writer, name string, r engine.Report) {
	fmt.Fprintf(w, "zone %s: %d accepted, %d duplicate, %d rejected, %d warnings\n",
		name, len(r.Accepted), len(r.Duplicates), len(r.Rejected), r.Warnings())
	for _, v := range r.Accepted {
		for _, warn := range v.Warnings {
			fmt.Fprintf(w, "  warning: %s %s: %s\n", v.Name, v.Type, warn)
		}
	}
	for _, d := range r.Duplicates {
		fmt.Fprintf(w, "  duplicate: %s %s %s\n", d.Name, d.Type, d.Value)
	}
	for _, rej := range r.Rejected {
		fmt.Fprintf(w, "  rejected: %v\n", rej)
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-zonecheck/internal/dns/common/rrdata"
)

func newSOACommand(a *app) *cobra.Command {
	var previous uint32

	check := &cobra.Command{
		Use:   `check "<mname> <rname> <serial> <refresh> <retry> <expire> <minimum>"`,
		Short: "Validate an SOA update against the previous serial",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			fields, err := rrdata.ParseSOA(args[0])
			if err != nil {
				return fmt.Errorf("invalid SOA: %w", err)
			}
			v, err := a.engine.ValidateZoneSOA(fields, previous)
			if err != nil {
				return fmt.Errorf("SOA rejected: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "soa ok: %s\n", rrdata.FormatSOA(v.SOAFields))
			for _, w := range v.Warnings {
				fmt.Fprintf(out, "  warning: %s\n", w)
			}
			return nil
		}),
	}
	check.Flags().Uint32Var(&previous, "previous", 0, "serial currently published for the zone (0 for a new zone)")

	cmd := &cobra.Command{
		Use:   "soa",
		Short: "SOA commands",
	}
	cmd.AddCommand(check)
	return cmd
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/binsight/api/internal/app"
	"github.com/binsight/api/internal/infra/postgres"
	"github.com/binsight/api/internal/metrics"
	"github.com/binsight/api/pkg/domain/shared"
)

func newZonesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Inspect and maintain zones",
	}

	cmd.AddCommand(newZonesListCmd())
	cmd.AddCommand(newZonesRecomputeCmd())
	return cmd
}

func newZonesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <campus-id>",
		Short: "List a campus's zones with their current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			campusID, err := shared.IDFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid campus id: %w", err)
			}

			_, db, _, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			zones, err := postgres.NewZoneRepository(db).ListByCampus(cmd.Context(), campusID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tSTATUS\tSCORE\tLAST SCANNED")
			for _, z := range zones {
				lastScanned := "-"
				if z.LastScannedAt != nil {
					lastScanned = z.LastScannedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%s\n", z.ID, z.Code, z.Status, z.LastScore, lastScanned)
			}
			return w.Flush()
		},
	}
}

func newZonesRecomputeCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "recompute [zone-id]",
		Short: "Re-derive zone status from recorded results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("provide a zone id or --all")
			}

			_, db, log, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			zones := app.NewZoneService(postgres.NewZoneRepository(db), nil, nil, log)

			if all {
				if err := zones.RecomputeAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("all zones recomputed")
				return nil
			}

			zoneID, err := shared.IDFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid zone id: %w", err)
			}
			z, err := zones.Recompute(cmd.Context(), zoneID, metrics.TriggerAdmin)
			if err != nil {
				return err
			}
			fmt.Printf("zone %s: status=%s score=%.0f\n", z.Code, z.Status, z.LastScore)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Recompute every zone")
	return cmd
}

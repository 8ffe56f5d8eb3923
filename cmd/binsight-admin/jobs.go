package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/binsight/api/internal/infra/postgres"
	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/domain/shared"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect scan jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <job-id>",
		Short: "Show a scan job and its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := shared.IDFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid job id: %w", err)
			}

			_, db, _, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			repo := postgres.NewScanRepository(db)
			job, err := repo.GetJob(cmd.Context(), jobID)
			if err != nil {
				return err
			}

			out := map[string]any{"job": job}
			result, err := repo.GetJobResult(cmd.Context(), jobID)
			switch {
			case err == nil:
				out["result"] = result
			case errors.Is(err, scan.ErrResultNotFound):
			default:
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	})

	return cmd
}

// Command binsight-admin is the operator CLI: schema migrations, job
// inspection, and zone status maintenance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/binsight/api/internal/config"
	"github.com/binsight/api/internal/infra/postgres"
	"github.com/binsight/api/pkg/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "binsight-admin",
		Short:         "Operational tooling for the waste scan pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newJobsCmd())
	root.AddCommand(newZonesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDB loads configuration and connects to Postgres.
func openDB() (*config.Config, *postgres.DB, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: "text"})

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return cfg, db, log, nil
}

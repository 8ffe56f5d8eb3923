package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binsight/api/migrations"
	"github.com/binsight/api/pkg/migrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, _, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := migrate.NewRunner(db.DB, migrations.FS).Up(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("applied %d migration(s)\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, _, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrate.NewRunner(db.DB, migrations.FS).Down(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("rolled back one migration")
			return nil
		},
	})

	return cmd
}

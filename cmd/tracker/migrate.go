package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monteirok/popmart-tracker/internal/bootstrap"
	"github.com/monteirok/popmart-tracker/internal/migrations"
)

func init() {
	var migrateStatus bool
	var migrateRollback bool
	var migrateCmd = &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Database migration management (sqlite and postgres drivers)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			db, dialect, err := bootstrap.OpenDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Using %s database\n", dialect)

			if migrateStatus {
				return migrations.Status(db, dialect)
			}
			if migrateRollback {
				return migrations.Down(db, dialect)
			}

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}

			switch action {
			case "up":
				if err := migrations.Up(db, dialect); err != nil {
					return err
				}
			case "down":
				if err := migrations.Down(db, dialect); err != nil {
					return err
				}
			case "status":
				return migrations.Status(db, dialect)
			default:
				return fmt.Errorf("unknown migrate action %q", action)
			}

			version, err := migrations.Version(db, dialect)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d\n", version)
			return nil
		},
	}
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Show migration status")
	migrateCmd.Flags().BoolVar(&migrateRollback, "rollback", false, "Rollback the last migration")
	rootCmd.AddCommand(migrateCmd)
}

// AngelaMos | 2026
// migrate.go

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/persona-advice/internal/migrations"
)

var steps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *migrations.Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	Long: `Roll back applied migrations.

Examples:
  advicectl migrate down             # roll back the last migration
  advicectl migrate down --steps 2   # roll back two migrations`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *migrations.Migrator) error {
			if err := m.Down(steps); err != nil {
				return err
			}
			return printVersion(cmd, m)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *migrations.Migrator) error {
			return printVersion(cmd, m)
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)

	migrateDownCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
}

func withMigrator(cmd *cobra.Command, fn func(m *migrations.Migrator) error) error {
	_, db, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exits next

	m, err := migrations.Open(db)
	if err != nil {
		return err
	}
	defer m.Close() //nolint:errcheck // process exits next

	return fn(m)
}

func printVersion(cmd *cobra.Command, m *migrations.Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}

	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, state)
	return nil
}

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/matheusmosca/sales-portal/internal/database"
)

// NewMigrateCmd cria o comando migrate e seus subcomandos
func NewMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) error {
				applied, err := m.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", applied)
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) error {
				reverted, err := m.Down(ctx, steps)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) reverted\n", reverted)
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to revert (0 reverts all)")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every table and migrate again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("reset deletes all data, pass --yes to confirm")
			}
			return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) error {
				if err := m.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "database reset")
				return nil
			})
		},
	}
	resetCmd.Flags().Bool("yes", false, "Confirm data loss")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				renderMigrationStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, resetCmd, statusCmd)
	return migrateCmd
}

func withMigrator(cmd *cobra.Command, fn func(context.Context, *database.Migrator) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	return fn(ctx, migrator)
}

func renderMigrationStatus(w io.Writer, statuses []database.MigrationStatus) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Version", "Name", "Status", "Applied At"})
	for _, s := range statuses {
		state, at := "pending", ""
		if s.Applied {
			state = "applied"
			at = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		t.AppendRow(table.Row{fmt.Sprintf("%04d", s.Version), s.Name, state, at})
	}
	t.Render()
}

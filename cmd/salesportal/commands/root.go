package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matheusmosca/sales-portal/internal/config"
)

var (
	// Version é definida no build
	Version = "dev"
)

// NewRootCmd cria o comando raiz
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "salesportal",
		Short: "Sales portal API: users, products, sales and stock",
		Long: `salesportal serves the sales portal HTTP API and ships the tooling around it.

Every stock change goes through a single ledger, so stock never goes negative
and every sale leaves a matching stock movement.

Example:
	salesportal migrate up
	salesportal serve --port 8080
	salesportal report summary --start 2024-01-01 --end 2024-01-31
`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (default: salesportal.yaml)")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewMigrateCmd())
	rootCmd.AddCommand(NewSmokeCmd())
	rootCmd.AddCommand(NewReportCmd())

	return rootCmd
}

// Execute roda o comando raiz
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// Command admin-service serves the tenant administration API and runs its
// background consumers. Operational subcommands share the same wiring.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "admin-service"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Multi-tenant administration backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running the binary without a subcommand serves the API.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(serveCmd(), migrateCmd(), workflowsCmd(), systemCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadConfigOnly()
			if err != nil {
				return err
			}
			fmt.Printf("%s version %s\n", appName, a.Version)
			return nil
		},
	})
	return cmd
}

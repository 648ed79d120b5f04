package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/startupstarter/admin/shared/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			applied, err := a.migrate(cmd.Context())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}

func (a *app) migrate(ctx context.Context) ([]string, error) {
	applied, err := database.Migrate(ctx, a.db)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if len(applied) > 0 {
		a.log.Info("Applied migrations", "migrations", applied)
	}
	return applied, nil
}

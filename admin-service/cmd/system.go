package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

func systemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Platform maintenance operations",
	}
	var actorID string
	cmd.PersistentFlags().StringVar(&actorID, "actor", "cli", "User id recorded as the actor")

	platformActor := func(a *app) cqrs.Actor {
		return cqrs.Actor{AccountID: a.cfg.PlatformAccountID, UserID: actorID}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show version, uptime and dependency health",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			renderStatus(cmd.OutOrStdout(), a.systemQueries.GetStatus(cmd.Context()))
			return nil
		},
	})

	var message string
	maintenance := &cobra.Command{
		Use:       "maintenance <on|off>",
		Short:     "Turn maintenance mode on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			state, err := a.systemCmds.SetMaintenance(cmd.Context(), cqrs.SetMaintenanceCommand{
				Actor:   platformActor(a),
				Enabled: enabled,
				Message: message,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "maintenance enabled=%t\n", state.Enabled)
			return nil
		},
	}
	maintenance.Flags().StringVar(&message, "message", "", "Message shown to blocked clients")
	cmd.AddCommand(maintenance)

	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Delete cached read models",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			n, err := a.systemCmds.FlushCache(cmd.Context(), cqrs.FlushCacheCommand{Actor: platformActor(a)})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d keys\n", n)
			return nil
		},
	})

	var days int
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Hard-delete soft-deleted records and expired history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			counts, err := a.systemCmds.Purge(cmd.Context(), cqrs.PurgeCommand{Actor: platformActor(a), OlderThanDays: days})
			if err != nil {
				return err
			}
			renderCounts(cmd.OutOrStdout(), counts)
			return nil
		},
	}
	purge.Flags().IntVar(&days, "older-than-days", 90, "Only purge records older than this many days")
	cmd.AddCommand(purge)

	return cmd
}

func renderStatus(w io.Writer, s *models.SystemStatus) {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Version", s.Version},
		{"Uptime", (time.Duration(s.UptimeSeconds) * time.Second).String()},
		{"Maintenance", strconv.FormatBool(s.Maintenance)},
		{"Database", s.Database},
		{"Cache", s.Cache},
	})
	if s.MaintenanceMessage != "" {
		table.Append([]string{"Message", s.MaintenanceMessage})
	}
	table.Render()
}

func renderCounts(w io.Writer, counts map[string]int64) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Table", "Deleted"})
	table.SetBorder(false)
	for _, name := range names {
		table.Append([]string{name, strconv.FormatInt(counts[name], 10)})
	}
	table.Render()
}

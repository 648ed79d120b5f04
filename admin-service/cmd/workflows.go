package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/startupstarter/admin/shared/cqrs"
	"gopkg.in/yaml.v3"
)

// workflowFile is the import document: a list of workflows under "workflows".
type workflowFile struct {
	Workflows []cqrs.WorkflowDefinition `yaml:"workflows"`
}

func workflowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Manage approval workflows",
	}

	var accountID, actorID string
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create workflows from a YAML definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := readWorkflowFile(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			views, err := a.workflowCmds.ImportWorkflows(cmd.Context(), cqrs.ImportWorkflowsCommand{
				Actor:     cqrs.Actor{AccountID: accountID, UserID: actorID},
				Workflows: defs,
			})
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Name", "Steps", "Default"})
			table.SetBorder(false)
			for _, v := range views {
				table.Append([]string{v.ID, v.Name, strconv.Itoa(len(v.Steps)), strconv.FormatBool(v.IsDefault)})
			}
			table.Render()
			return nil
		},
	}
	importCmd.Flags().StringVar(&accountID, "account", "", "Account the workflows belong to")
	importCmd.Flags().StringVar(&actorID, "actor", "cli", "User id recorded as the actor")
	_ = importCmd.MarkFlagRequired("account")

	cmd.AddCommand(importCmd)
	return cmd
}

func readWorkflowFile(path string) ([]cqrs.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f workflowFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Workflows) == 0 {
		return nil, fmt.Errorf("%s defines no workflows", path)
	}
	return f.Workflows, nil
}

package apps

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appstore-dev/appstore/pkg/models"
	"github.com/appstore-dev/appstore/pkg/printer"
)

var deploymentsOutputFormat string

var DeploymentsCmd = &cobra.Command{
	Use:   "deployments <application-id>",
	Short: "List an application's deployments without checking them",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeployments,
}

func init() {
	DeploymentsCmd.Flags().StringVarP(&deploymentsOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
}

func runDeployments(cmd *cobra.Command, args []string) error {
	if apiClient == nil {
		return fmt.Errorf("API client not initialized")
	}
	format, err := printer.ParseOutputType(deploymentsOutputFormat)
	if err != nil {
		return err
	}

	list, err := apiClient.GetDeployments(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get deployments: %w", err)
	}

	if format != printer.OutputTypeTable {
		return printer.New(format, false).WithWriter(cmd.OutOrStdout()).Print(list)
	}
	if len(list.Deployments) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No deployments")
		return nil
	}

	t := printer.NewTablePrinter(cmd.OutOrStdout())
	t.SetHeaders("ID", "Name", "URL", "Created")
	for _, dep := range list.Deployments {
		t.AddRow(
			printer.TruncateString(dep.ID, 20),
			printer.TruncateString(models.OrNA(dep.Name), 30),
			printer.TruncateString(models.OrNA(dep.URL), 60),
			models.OrNA(dep.CreateTime),
		)
	}
	if err := t.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

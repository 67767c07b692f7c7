package apps

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/appstore-dev/appstore/internal/client"
	"github.com/appstore-dev/appstore/pkg/models"
	"github.com/appstore-dev/appstore/pkg/printer"
)

var (
	listSort     string
	listOrder    string
	listSearch   string
	outputFormat string
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications",
	Long:  `List applications from the record store, sorted and optionally filtered by a search term.`,
	RunE:  runList,
}

func init() {
	ListCmd.Flags().StringVar(&listSort, "sort", "name", "Sort key (name, app_type, createTime, expiryTime)")
	ListCmd.Flags().StringVar(&listOrder, "order", "asc", "Sort order (asc, desc)")
	ListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Only show applications whose name or type contains this term")
	ListCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
}

func runList(cmd *cobra.Command, args []string) error {
	if apiClient == nil {
		return fmt.Errorf("API client not initialized")
	}
	format, err := printer.ParseOutputType(outputFormat)
	if err != nil {
		return err
	}

	list, err := apiClient.ListApplications(cmd.Context(), client.ListOptions{
		Sort:   listSort,
		Order:  listOrder,
		Search: listSearch,
	})
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}

	if format != printer.OutputTypeTable {
		return printer.New(format, false).WithWriter(cmd.OutOrStdout()).Print(list)
	}
	if len(list.Applications) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No applications available")
		return nil
	}
	return printApplicationsTable(cmd.OutOrStdout(), list.Applications)
}

func printApplicationsTable(w io.Writer, apps []models.Application) error {
	t := printer.NewTablePrinter(w)
	t.SetHeaders("ID", "Name", "Type", "Version", "Created", "Expires")
	for _, app := range apps {
		t.AddRow(
			printer.TruncateString(app.ID, 20),
			printer.TruncateString(models.OrNA(app.Name), 40),
			models.OrNA(app.AppType),
			models.OrNA(app.AppVersion),
			models.OrNA(app.CreateTime),
			models.OrNA(app.ExpiryTime),
		)
	}
	if err := t.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

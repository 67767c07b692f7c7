package apps

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/appstore-dev/appstore/internal/utils"
	"github.com/appstore-dev/appstore/pkg/models"
	"github.com/appstore-dev/appstore/pkg/printer"
)

var (
	showOutputFormat string
	showPollInterval time.Duration
)

var ShowCmd = &cobra.Command{
	Use:   "show <application-id>",
	Short: "Show an application and the health of its deployments",
	Long: `Shows an application's details and checks every deployment URL. Each distinct
URL is probed once; deployments without a URL are reported as such.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	ShowCmd.Flags().StringVarP(&showOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	ShowCmd.Flags().DurationVar(&showPollInterval, "poll-interval", 250*time.Millisecond, "How often to poll the health check")
}

func runShow(cmd *cobra.Command, args []string) error {
	if apiClient == nil {
		return fmt.Errorf("API client not initialized")
	}
	format, err := printer.ParseOutputType(showOutputFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	job, err := apiClient.StartHealthCheck(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get application: %w", err)
	}
	if job.Status == models.HealthCheckPending {
		job, err = apiClient.WaitHealthCheck(ctx, job.ID, showPollInterval)
		if err != nil {
			return fmt.Errorf("failed to check deployment health: %w", err)
		}
	}
	if job.Status != models.HealthCheckCompleted || job.Detail == nil {
		return fmt.Errorf("health check %s ended as %s", job.ID, job.Status)
	}

	if format != printer.OutputTypeTable {
		return printer.New(format, false).WithWriter(cmd.OutOrStdout()).Print(job.Detail)
	}
	return printDetail(cmd.OutOrStdout(), job.Detail)
}

func printDetail(w io.Writer, view *models.ApplicationDetail) error {
	app := view.Application
	t := printer.NewTablePrinter(w)
	t.SetHeaders("Property", "Value")
	t.AddRow("ID", app.ID)
	t.AddRow("Name", models.OrNA(app.Name))
	t.AddRow("Type", models.OrNA(app.AppType))
	t.AddRow("Record version", models.OrNA(app.Version))
	t.AddRow("App version", models.OrNA(app.AppVersion))
	t.AddRow("Bond ID", models.OrNA(app.BondID))
	t.AddRow("Repository", utils.RepositoryLink(&app))
	t.AddRow("Repository ref", models.OrNA(app.RepositoryRef))
	owners := models.NotAvailable
	if len(app.Owners) > 0 {
		owners = strings.Join(app.Owners, ", ")
	}
	t.AddRow("Owners", owners)
	t.AddRow("Created", models.OrNA(app.CreateTime))
	t.AddRow("Expires", models.OrNA(app.ExpiryTime))
	if err := t.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	if len(view.Deployments) == 0 {
		fmt.Fprintln(w, "No deployments")
		return nil
	}
	d := printer.NewTablePrinter(w)
	d.SetHeaders("", "Deployment", "URL", "Health")
	for _, row := range view.Deployments {
		d.AddRow(
			printer.StatusGlyph(row.Status),
			printer.TruncateString(models.OrNA(row.Name), 30),
			printer.TruncateString(models.OrNA(row.URL), 60),
			row.Status.Label(),
		)
	}
	if err := d.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

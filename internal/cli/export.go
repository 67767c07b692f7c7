package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appstore-dev/appstore/internal/registry"
	"github.com/appstore-dev/appstore/internal/registry/exporter"
	"github.com/appstore-dev/appstore/pkg/printer"
)

var (
	exportOutput      string
	exportEndpoint    string
	exportRecordsFile string
	exportProbe       bool
)

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export applications and deployment health to a file",
	Long: `Reads every application and its deployments from the record store and
writes them to a JSON or YAML snapshot. With --probe each deployment is
health-checked first. Runs in-process and does not need a running server.`,
	Hidden:            true,
	PersistentPreRunE: skipClient,
	RunE:              runExport,
}

func init() {
	ExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (.json, .yaml or .yml)")
	ExportCmd.Flags().StringVar(&exportEndpoint, "registry-endpoint", "", "Laconic registry GraphQL endpoint")
	ExportCmd.Flags().StringVar(&exportRecordsFile, "records-file", "", "Read records from a local YAML or JSON file")
	ExportCmd.Flags().BoolVar(&exportProbe, "probe", true, "Health-check deployments before exporting")
	_ = ExportCmd.MarkFlagRequired("output")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadLocalConfig(exportEndpoint, exportRecordsFile)
	if err != nil {
		return err
	}
	app, err := registry.New(cfg, false)
	if err != nil {
		return fmt.Errorf("failed to initialize registry: %w", err)
	}

	svc := exporter.NewService(app.Registry, nil)
	if exportProbe {
		svc = exporter.NewService(app.Registry, app.Loader)
	}

	count, err := svc.ExportToPath(cmd.Context(), exportOutput)
	if err != nil {
		return fmt.Errorf("failed to export applications: %w", err)
	}
	printer.PrintSuccess(fmt.Sprintf("Exported %d applications to %s", count, exportOutput))
	return nil
}

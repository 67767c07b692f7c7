package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/appstore-dev/appstore/internal/registry"
)

var (
	serveEndpoint    string
	serveRecordsFile string
	serveAddress     string
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the App Store API server",
	Long: `Runs the App Store API server in the foreground. Configuration is read from
APPSTORE_* environment variables and an optional .env file; flags override it.`,
	PersistentPreRunE: skipClient,
	RunE:              runServe,
}

func init() {
	ServeCmd.Flags().StringVar(&serveEndpoint, "registry-endpoint", "", "Laconic registry GraphQL endpoint")
	ServeCmd.Flags().StringVar(&serveRecordsFile, "records-file", "", "Serve records from a local YAML or JSON file")
	ServeCmd.Flags().StringVar(&serveAddress, "address", "", "Listen address (default :12121)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadLocalConfig(serveEndpoint, serveRecordsFile)
	if err != nil {
		return err
	}
	if serveAddress != "" {
		cfg.ServerAddress = serveAddress
	}

	app, err := registry.New(cfg, true)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx)
}

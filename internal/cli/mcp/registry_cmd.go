package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/appstore-dev/appstore/internal/registry"
	"github.com/appstore-dev/appstore/internal/registry/config"
)

var (
	registryEndpoint    string
	registryRecordsFile string
)

var registryCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an MCP bridge exposing App Store discovery and health tools (stdio transport)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if registryEndpoint != "" {
			cfg.RegistryEndpoint = registryEndpoint
		}
		if registryRecordsFile != "" {
			cfg.RecordsFile = registryRecordsFile
		}

		app, err := registry.New(cfg, false)
		if err != nil {
			return fmt.Errorf("initialize registry: %w", err)
		}

		cmd.PrintErrln("Starting App Store MCP bridge on stdio...")
		if err := app.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
			return fmt.Errorf("mcp server exited: %w", err)
		}
		return nil
	},
}

func init() {
	registryCmd.Flags().StringVar(&registryEndpoint, "registry-endpoint", "", "Laconic registry GraphQL endpoint")
	registryCmd.Flags().StringVar(&registryRecordsFile, "records-file", "", "Read records from a local YAML or JSON file")
	McpCmd.AddCommand(registryCmd)
}

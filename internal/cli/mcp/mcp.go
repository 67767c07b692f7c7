package mcp

import (
	"github.com/spf13/cobra"
)

var McpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Commands for the App Store MCP server",
	Long:  `Commands for exposing App Store discovery and health checks to MCP clients.`,
	// The MCP bridge runs the registry in-process.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
}

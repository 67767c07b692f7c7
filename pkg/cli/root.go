// Package cli builds the appstore command tree.
package cli

import (
	"github.com/spf13/cobra"

	cliinternal "github.com/appstore-dev/appstore/internal/cli"
	"github.com/appstore-dev/appstore/internal/cli/apps"
	"github.com/appstore-dev/appstore/internal/cli/mcp"
	"github.com/appstore-dev/appstore/internal/client"
	"github.com/appstore-dev/appstore/internal/registry/config"
)

var verbose bool

// Root returns the appstore root command. Subcommands that talk to a running
// server get a client from APPSTORE_API_BASE_URL and APPSTORE_API_TOKEN.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "appstore",
		Short: "Browse Laconic applications and check the health of their deployments",
		Long: `appstore lists applications registered in a Laconic registry and reports
whether each of their deployments is reachable.

Run "appstore serve" to start the API server, then use the other commands
against it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			c, err := client.NewClientFromEnv()
			if err != nil {
				return err
			}
			cliinternal.SetAPIClient(c)
			apps.SetAPIClient(c)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(apps.AppsCmd)
	root.AddCommand(cliinternal.BrowseCmd)
	root.AddCommand(cliinternal.ExportCmd)
	root.AddCommand(mcp.McpCmd)
	root.AddCommand(cliinternal.ServeCmd)
	root.AddCommand(cliinternal.StatusCmd)
	root.AddCommand(cliinternal.VersionCmd)
	return root
}

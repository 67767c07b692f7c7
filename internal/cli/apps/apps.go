package apps

import (
	"github.com/spf13/cobra"

	"github.com/appstore-dev/appstore/internal/client"
)

var apiClient *client.Client

func SetAPIClient(client *client.Client) {
	apiClient = client
}

var AppsCmd = &cobra.Command{
	Use:     "apps",
	Aliases: []string{"app"},
	Short:   "Commands for listing applications and their deployments",
	Long:    `Commands for listing applications registered in the record store and checking the health of their deployments.`,
	Args:    cobra.ArbitraryArgs,
	Example: `appstore apps list --sort createTime --order desc
appstore apps list --search webapp -o json
appstore apps show bafyreib...
appstore apps deployments bafyreib...`,
}

func init() {
	AppsCmd.AddCommand(ListCmd)
	AppsCmd.AddCommand(ShowCmd)
	AppsCmd.AddCommand(DeploymentsCmd)
}

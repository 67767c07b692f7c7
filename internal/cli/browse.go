package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/appstore-dev/appstore/internal/cli/tui"
)

var BrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse applications and their deployment health interactively",
	Long: `Opens an interactive list of applications. Selecting one shows its
deployments; their health is checked in the background and shown once the
check completes.`,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if apiClient == nil {
		return fmt.Errorf("API client not initialized")
	}
	_, err := tea.NewProgram(tui.NewBrowser(apiClient), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}

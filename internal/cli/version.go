package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/appstore-dev/appstore/internal/version"
)

type VersionOutput struct {
	AppstoreVersion      string `json:"appstore_version"`
	GitCommit            string `json:"git_commit"`
	BuildDate            string `json:"build_date"`
	ServerVersion        string `json:"server_version,omitempty"`
	ServerGitCommit      string `json:"server_git_commit,omitempty"`
	ServerBuildDate      string `json:"server_build_date,omitempty"`
	UpdateRecommendation string `json:"update_recommendation,omitempty"`
}

var jsonOutput bool

var VersionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Show version information",
	Long:              `Displays the version of the appstore CLI and, when reachable, of the server.`,
	PersistentPreRunE: skipClient,
	Run: func(cmd *cobra.Command, args []string) {
		output := VersionOutput{
			AppstoreVersion: version.Version,
			GitCommit:       version.GitCommit,
			BuildDate:       version.BuildDate,
		}

		c := apiClient
		if c == nil {
			c = envClient()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		serverVersion, err := c.GetVersion(ctx)
		if err == nil {
			output.ServerVersion = serverVersion.Version
			output.ServerGitCommit = serverVersion.GitCommit
			output.ServerBuildDate = serverVersion.BuildTime
			output.UpdateRecommendation = updateRecommendation(version.Version, serverVersion.Version)
		}

		if jsonOutput {
			jsonBytes, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				fmt.Printf("Error marshaling JSON: %v\n", err)
				return
			}
			fmt.Println(string(jsonBytes))
			return
		}

		// Human-readable output
		fmt.Printf("appstore version %s\n", output.AppstoreVersion)
		fmt.Printf("Git commit: %s\n", output.GitCommit)
		fmt.Printf("Build date: %s\n", output.BuildDate)

		if serverVersion != nil {
			fmt.Printf("Server version: %s\n", output.ServerVersion)
			fmt.Printf("Server git commit: %s\n", output.ServerGitCommit)
			fmt.Printf("Server build date: %s\n", output.ServerBuildDate)

			if output.UpdateRecommendation != "" {
				fmt.Println("\n-------------------------------")
				fmt.Println(output.UpdateRecommendation)
			}
		} else if err != nil {
			fmt.Printf("Error getting server version: %v\n", err)
		}
	},
}

func updateRecommendation(cliVersion, serverVersion string) string {
	cv, sv := version.EnsureVPrefix(cliVersion), version.EnsureVPrefix(serverVersion)
	if !semver.IsValid(cv) || !semver.IsValid(sv) {
		return ""
	}
	switch semver.Compare(cv, sv) {
	case 1:
		return "CLI version is newer than server version. Consider updating the server."
	case -1:
		return "Server version is newer than CLI version. Consider updating the CLI."
	}
	return ""
}

func init() {
	VersionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version information in JSON format")
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/appstore-dev/appstore/internal/client"
	"github.com/appstore-dev/appstore/internal/version"
)

var statusOutputFormat string

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of the App Store server",
	Long:  `Displays whether the App Store server is reachable, its version, its record source and the number of applications.`,
	// Override PersistentPreRunE so an unreachable server is reported, not retried.
	PersistentPreRunE: skipClient,
	RunE:              runStatus,
}

func init() {
	StatusCmd.Flags().StringVarP(&statusOutputFormat, "output", "o", "table", "Output format (table, json)")
}

type statusInfo struct {
	API          string `json:"api"`
	Version      string `json:"version,omitempty"`
	GitCommit    string `json:"git_commit,omitempty"`
	BuildTime    string `json:"build_time,omitempty"`
	Health       string `json:"health,omitempty"`
	RecordSource string `json:"record_source,omitempty"`
	RecordStore  string `json:"record_store,omitempty"`
	ProbeMode    string `json:"probe_mode,omitempty"`
	Applications int    `json:"applications"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	info := statusInfo{
		API:          "unreachable",
		Applications: -1,
	}

	// Try to connect to the API without retries.
	c := envClient()
	if err := c.Ping(); err == nil {
		info.API = "ok"

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if ver, err := c.GetVersion(ctx); err == nil {
			info.Version = ver.Version
			info.GitCommit = ver.GitCommit
			info.BuildTime = ver.BuildTime
		}
		if h, err := c.GetHealth(ctx); err == nil {
			info.Health = h.Status
			info.RecordSource = h.RecordSource
			info.RecordStore = h.RecordStore
			info.ProbeMode = h.ProbeMode
		}
		if apps, err := c.ListApplications(ctx, client.ListOptions{}); err == nil {
			info.Applications = apps.Count
		}
	}

	if statusOutputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Printf("appstore version: %s\n", version.Version)
	fmt.Printf("API:              %s (%s)\n", info.API, c.BaseURL)
	if info.Version != "" {
		fmt.Printf("Server version:   %s\n", info.Version)
		fmt.Printf("Git commit:       %s\n", info.GitCommit)
		fmt.Printf("Build time:       %s\n", info.BuildTime)
	}
	if info.Health != "" {
		fmt.Printf("Health:           %s\n", info.Health)
		fmt.Printf("Record source:    %s (%s)\n", info.RecordSource, info.RecordStore)
		fmt.Printf("Probe mode:       %s\n", info.ProbeMode)
	}
	if info.Applications >= 0 {
		fmt.Printf("Applications:     %d\n", info.Applications)
	}

	return nil
}

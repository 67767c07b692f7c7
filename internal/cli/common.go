package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/appstore-dev/appstore/internal/client"
	"github.com/appstore-dev/appstore/internal/registry/config"
)

var apiClient *client.Client

func SetAPIClient(c *client.Client) {
	apiClient = c
}

// skipClient is the PersistentPreRunE of commands that do not talk to a
// running server, or that reach it without the retrying ping.
func skipClient(*cobra.Command, []string) error {
	return nil
}

// envClient builds a client from the environment without checking that the
// server answers.
func envClient() *client.Client {
	return client.NewClient(os.Getenv(client.BaseURLEnv), os.Getenv(client.TokenEnv))
}

// loadLocalConfig reads the server configuration for commands that run the
// registry in-process, applying flag overrides.
func loadLocalConfig(endpoint, recordsFile string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if endpoint != "" {
		cfg.RegistryEndpoint = endpoint
	}
	if recordsFile != "" {
		cfg.RecordsFile = recordsFile
	}
	return cfg, nil
}

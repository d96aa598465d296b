package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/stash/pkg/config"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with a generated API key",
		Long: `Create the stash configuration file and data directory.

The configuration gets a freshly generated API key for the inspection API.

Examples:
  stash init
  stash init --data-dir ./journals --config ./stash.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.path()
			if config.ConfigExists(path) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", path)
				return nil
			}

			cfg, err := config.BootstrapConfig(path, a.dataDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}

			cmd.Printf("Wrote configuration to %s\n", path)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			cmd.Printf("Backend: %s\n", cfg.Backend)
			cmd.Printf("API key: %s\n", cfg.Security.APIKey)
			return nil
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	return initCmd
}

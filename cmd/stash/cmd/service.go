package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/stash/pkg/config"
)

// ServiceName is the systemd unit installed for the inspection API
const ServiceName = "stash.service"

func newServiceCmd(a *app) *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Run the inspection API as a systemd service",
	}
	serviceCmd.AddCommand(newServiceUnitCmd(a))
	return serviceCmd
}

func newServiceUnitCmd(a *app) *cobra.Command {
	var (
		user   string
		binary string
		file   string
	)

	unitCmd := &cobra.Command{
		Use:   "unit",
		Short: "Render a systemd unit that runs stash serve",
		Long: `Render a systemd unit that runs "stash serve" with the current configuration.
The unit is printed unless --file is given.

Examples:
  stash service unit --user stash
  sudo stash service unit --file /etc/systemd/system/stash.service`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(a.path())
			if err != nil {
				return err
			}
			unit := systemdUnit(a.container.Config(), binary, path, user)
			if file == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), unit)
				return err
			}
			if err := os.WriteFile(file, []byte(unit), 0600); err != nil {
				return fmt.Errorf("write unit: %w", err)
			}
			cmd.Printf("Wrote %s\n", file)
			cmd.Printf("Enable it with: sudo systemctl daemon-reload && sudo systemctl enable --now %s\n", ServiceName)
			return nil
		},
	}

	unitCmd.Flags().StringVar(&user, "user", "stash", "User and group to run the service as")
	unitCmd.Flags().StringVar(&binary, "binary", "/usr/local/bin/stash", "Path of the stash executable")
	unitCmd.Flags().StringVar(&file, "file", "", "Write the unit to this path instead of stdout")
	return unitCmd
}

// systemdUnit renders the unit for cfg; the config file must be readable by user
func systemdUnit(cfg *config.Config, binary, configPath, user string) string {
	dataDir := cfg.DataDir
	if abs, err := filepath.Abs(dataDir); err == nil {
		dataDir = abs
	}
	return fmt.Sprintf(`[Unit]
Description=stash inspection API
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, dataDir)
}

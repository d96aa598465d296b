// Package cmd implements the stash command line
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/stash/pkg/config"
	"github.com/ssargent/stash/pkg/di"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// app is the state shared by one command tree
type app struct {
	configPath string
	dataDir    string
	logLevel   string
	output     string
	container  *di.Container
}

// NewRootCmd builds the stash command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "stash",
		Short: "stash - a prevalence journal for Go",
		Long: `stash records every mutating call made on a subject into a binary log and
replays the log to rebuild the subject. This tool drives the demo ring
accumulator, inspects saved journals and serves a read-only inspection API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.output != outputTable && a.output != outputJSON {
				return fmt.Errorf("unknown output format %q", a.output)
			}
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			a.container = di.NewContainer(cfg)
			a.container.SetLogOutput(cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.container == nil {
				return nil
			}
			return a.container.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default "+config.GetDefaultConfigPath()+")")
	flags.StringVarP(&a.dataDir, "data-dir", "d", "", "Data directory for journal snapshots (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flags.StringVarP(&a.output, "output", "o", outputTable, "Output format: table or json")

	rootCmd.AddCommand(
		newInitCmd(a),
		newRingCmd(a),
		newInspectCmd(a),
		newCodecsCmd(a),
		newServeCmd(a),
		newServiceCmd(a),
	)
	return rootCmd
}

// Execute runs the command tree. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) path() string {
	if a.configPath != "" {
		return a.configPath
	}
	return config.GetDefaultConfigPath()
}

// loadConfig reads the config file when there is one and applies the flag overrides
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := a.path(); config.ConfigExists(path) {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	return cfg, cfg.Validate()
}

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/stash/pkg/api"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port   int
		bind   string
		apiKey string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only inspection API",
		Long: `Serve the saved journals, the codec registry and Prometheus metrics over HTTP.

Requests under /api/v1 need the X-API-Key header when an API key is configured.

Examples:
  stash serve
  stash serve --port 9200 --bind 0.0.0.0 --api-key mysecretkey`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.container.Config()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("bind") {
				cfg.Bind = bind
			}
			if cmd.Flags().Changed("api-key") {
				cfg.Security.APIKey = apiKey
			}
			if cfg.Security.APIKey == "" {
				a.container.Logger().Warn("inspection API is running without authentication")
			}

			st, err := a.container.Store()
			if err != nil {
				return err
			}
			schema, err := a.container.RingSchema()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return api.StartServer(ctx, st, api.ServerConfig{
				Port:     cfg.Port,
				Bind:     cfg.Bind,
				APIKey:   cfg.Security.APIKey,
				Schemas:  []api.Scanner{schema},
				Registry: a.container.Registry(),
				Metrics:  a.container.Metrics(),
				Logger:   a.container.Logger(),
			})
		},
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&bind, "bind", "127.0.0.1", "Address to bind (overrides config)")
	serveCmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the inspection API (overrides config)")
	return serveCmd
}

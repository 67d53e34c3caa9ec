package commands

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/forgeevents/eventcatalog/internal/api"
)

// NewServeCommand creates the serve command
func NewServeCommand(g *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over a read-only HTTP API",
		Long: `Serve exposes the catalog as JSON:

  GET /releases
  GET /releases/{release}/events?view=production|staging
  GET /releases/{release}/events/{name}
  GET /healthz
  GET /metrics

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withStore(cmd.Context(), func(e *env) error {
				if addr == "" {
					addr = e.cfg.Server.Addr
				}

				registry := prometheus.NewRegistry()
				registry.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)

				handler := api.NewRouter(e.store, api.Options{
					Logger:   e.logger,
					Gatherer: registry,
				})
				config := api.DefaultServerConfig(addr, handler)
				config.Logger = e.logger

				srv, err := api.NewServer(config)
				if err != nil {
					return err
				}
				return srv.Run(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")

	return cmd
}

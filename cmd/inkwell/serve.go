package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var noReload bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the stateless HTTP server",
		Long: `Serve exposes conversion and command dispatch as a JSON API. When a
configuration file is in use it is watched and changes apply to new
requests without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			srv, err := server.New(a.cfg, server.WithLogger(a.logger))
			if err != nil {
				return err
			}

			if a.cfg.Path != "" && !noReload {
				go func() {
					err := config.Watch(ctx, a.cfg.Path, func(cfg *config.Config, err error) {
						if err != nil {
							a.logger.Error("configuration reload failed", "path", a.cfg.Path, "error", err)
							return
						}
						if err := srv.Reload(cfg); err != nil {
							a.logger.Error("applying configuration", "error", err)
							return
						}
						a.logger.Info("configuration reloaded", "path", cfg.Path)
					}, a.loadOpts...)
					if err != nil {
						a.logger.Warn("configuration watch stopped", "error", err)
					}
				}()
			}

			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&noReload, "no-reload", false, "do not watch the configuration file")
	return cmd
}

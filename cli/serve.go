package cli

import (
	"github.com/spf13/cobra"

	"github.com/georgepadayatti/docstacker/pdf/bridge"
	"github.com/georgepadayatti/docstacker/server"
	"github.com/georgepadayatti/docstacker/store"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			if err := bridge.NewPoppler(cfg.PopplerOptions()).AssertReady(); err != nil {
				a.log.Warn("page rendering unavailable", "error", err)
			}

			s, err := store.Open(ctx, cfg.StoreOptions())
			if err != nil {
				return err
			}
			defer s.Close()
			a.log.Info("store ready", "driver", cfg.Storage.Driver)

			srv := server.New(a.pipeline(store.NewRepository(s)), &server.Options{
				Addr:            cfg.Server.Addr,
				AllowedOrigins:  cfg.Server.AllowedOrigins,
				MaxUploadBytes:  cfg.MaxUploadBytes(),
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			}, a.log)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/chatagent/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent over a websocket at /ws",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := prepareRuntimeEnv(ctx, a.cfg, a.logger, runtimeOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return server.New(addr, env.newEngine, a.logger).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

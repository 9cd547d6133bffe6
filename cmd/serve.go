package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over JSON-RPC on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// stdout carries the protocol
		env, err := setup(ctx, "stderr")
		if err != nil {
			return err
		}
		defer env.logger.Sync()

		srv, err := server.New(env.service.Tools(), server.Options{Name: app, Version: version, Logger: env.logger})
		if err != nil {
			return err
		}

		env.logger.Info("starting the gig-assistant server",
			zap.String("version", version),
			zap.String("session", srv.Session()),
			zap.Bool("advisory", env.service.Advisor != nil),
		)

		return srv.Serve(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// Package cli defines the rpsbot command line.
//
//   - serve      Run the interactions endpoint (and optionally the gateway)
//   - register   Install the slash commands and exit
//
// The root command loads configuration and builds the logger before any
// subcommand runs.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DoyleJ11/rps-bot/internal/config"
	"github.com/DoyleJ11/rps-bot/internal/logging"
)

var (
	envFile string
	cfg     config.Config
	log     *zap.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:          "rpsbot",
		Short:        "Rock paper scissors bot for Discord",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(envFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err = logging.New(cfg.LogLevel, cfg.LogDevelopment)
			if err != nil {
				return err
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	serve := serveCmd()
	root.AddCommand(serve, registerCmd())
	// Running the binary with no subcommand starts the server.
	root.RunE = serve.RunE
	return root.Execute()
}

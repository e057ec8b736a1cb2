package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bookbff/internal/app"
	"bookbff/internal/config"
	"bookbff/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the authors and books API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		logger.Info("serving", "addr", a.Addr(), "domains", cfg.App.Domains)
		return a.Run(ctx)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

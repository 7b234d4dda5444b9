package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ai-shadow/shadow-backend/internal/config"
	"github.com/ai-shadow/shadow-backend/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "shadow-backend",
		Short:         "AI Shadow chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}
	root.PersistentFlags().String("port", "", "HTTP listen port (env PORT)")
	root.PersistentFlags().String("log-mode", "", "development or production (env LOG_MODE)")
	_ = v.BindPFlag("port", root.PersistentFlags().Lookup("port"))
	_ = v.BindPFlag("log_mode", root.PersistentFlags().Lookup("log-mode"))

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "setup-db",
		Short: "Create tables and load the built-in prompt templates, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetupDB(cmd.Context(), v)
		},
	})
	return root
}

// bootstrap resolves configuration and builds the process logger.
func bootstrap(v *viper.Viper) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, log, nil
}

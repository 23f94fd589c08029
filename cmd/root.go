package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"waitline/internal/app"
	"waitline/internal/config"
	"waitline/internal/log"
)

// commandContext loads configuration once and opens the app lazily.
type commandContext struct {
	configPath *string
	cfg        *config.Config
	logger     *log.Logger
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := log.NewLogger(cfg.Log.Development, cfg.Log.Debug, cfg.Log.Outputs...)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	c.cfg, c.logger = cfg, logger
	return cfg, nil
}

func (c *commandContext) openApp(ctx context.Context) (*app.App, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, c.logger)
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configPath: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "waitlinectl",
		Short:         "Waitline operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (TOML)")

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newAuditCommand(ctx))
	rootCmd.AddCommand(newAnalyticsCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))
	return rootCmd
}

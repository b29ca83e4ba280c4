package main

import (
	"fmt"
	"os"

	"github.com/aretw0/sopflow"
	"github.com/aretw0/sopflow/internal/cli"
	"github.com/aretw0/sopflow/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sopflow",
	Short: "sopflow runs Standard Operating Procedures as workflows",
	Long: `sopflow loads SOP definitions (statuses and the actions between them),
opens cases on them and moves each case through its procedure, enforcing
roles, required fields and documents while recording an audit trail.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().StringP("definitions", "d", "", "Directory containing SOP definitions (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// loadConfig resolves the configuration from file, environment and flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if dir, _ := cmd.Flags().GetString("definitions"); dir != "" {
		cfg.DefinitionsDir = dir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, cfg.Validate()
}

// openApp builds the engine for a command. Callers must Close the App.
func openApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cfg, logger)
}

// openDefinitions builds an engine with an in-memory store for commands that
// only read definitions, so they never touch the configured backends.
func openDefinitions(cmd *cobra.Command) (*sopflow.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return sopflow.New(cfg.DefinitionsDir,
		sopflow.WithLogger(logger),
		sopflow.WithCatalog(cfg.Catalog),
	)
}

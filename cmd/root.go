package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tusharsharma89566/Edu-Learn/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "edulearn",
	Short:         "EduLearn learning platform API",
	SilenceUsage:  true,
	SilenceErrors: true,
	// serve is the default when no subcommand is given
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml), defaults to $CONFIG_FILE")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, exportCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "edulearn: %v\n", err)
		os.Exit(1)
	}
}

// configPath prefers --config over CONFIG_FILE
func configPath() string {
	if configFile != "" {
		return configFile
	}
	return os.Getenv("CONFIG_FILE")
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfigFile(configPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

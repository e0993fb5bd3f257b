package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-synapse/internal/logging"
	"github.com/goliatone/go-synapse/pkg/config"
	"github.com/goliatone/go-synapse/pkg/di"
	"github.com/spf13/cobra"
)

var (
	configPath string
	outputFmt  string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "synapse",
		Short:         "Synapse - cached access to the social backend",
		Long:          "Reads users, profiles, posts and chats through a read-through cache and pages lists from the backend database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv(config.EnvPrefix+"CONFIG"), "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "json", "Output format (json, yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(
		userCmd(),
		profileCmd(),
		postCmd(),
		feedCmd(),
		chatCmd(),
		uploadCmd(),
		migrateCmd(),
		metricsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logging.Init(cfg.Log)
	return cfg, nil
}

// withApp loads the configuration, builds the app and closes it once fn returns.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *di.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logging.Op().Warn("close failed", "error", err)
		}
	}()

	return fn(ctx, app)
}

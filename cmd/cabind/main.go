package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cabin-network-backend/config"
	"cabin-network-backend/internal/logger"
)

const defaultConfigPath = "./config/config.yaml" // Default path for local development

var configPath string

var rootCmd = &cobra.Command{
	Use:          "cabind",
	Short:        "Cabin network inventory service",
	Long:         `Tracks cabins, tables and workstations, their uplink wiring and connectivity status.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default $CONFIG_PATH or "+defaultConfigPath+")")
}

func main() {
	rootCmd.AddCommand(serveCmd, reportCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file from the flag, then CONFIG_PATH. When
// neither is set and the default file is absent, built-in defaults are used.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
		return cfg, path, nil
	}

	cfg, err := config.Load(defaultConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), "defaults", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration from %s: %w", defaultConfigPath, err)
	}
	return cfg, defaultConfigPath, nil
}

// setup loads the config and builds the logger. Commands that print to
// stdout pass toStderr so log lines do not mix with their output.
func setup(toStderr bool) (*config.Config, *zap.Logger, error) {
	cfg, source, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if toStderr && cfg.Logging.OutputPath == "stdout" {
		cfg.Logging.OutputPath = "stderr"
	}
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	log.Info("configuration loaded", zap.String("source", source))
	return cfg, log, nil
}

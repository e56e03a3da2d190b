package main

import (
	"fmt"
	"os"
	"time"

	"github.com/benmeehan/location-tracker/internal/store"
	"github.com/benmeehan/location-tracker/internal/utils"
	"github.com/benmeehan/location-tracker/pkg/file"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	fileClient = file.NewFileService()
	config     *utils.Config
	logger     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Periodic location tracking agent",
	Long: `Samples the device location at a fixed interval, keeps every fix in a
local SQLite log and serves a live map of the recorded path.

Examples:
  tracker serve
  tracker start --choice short
  tracker watch
  tracker history --limit 20
  tracker stop`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = loadConfig(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			config.Log.Level = logLevel
		}
		logger, err = newLogger(config)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the YAML configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// loadConfig reads path, falling back to defaults when the file is absent.
func loadConfig(path string) (*utils.Config, error) {
	exists, err := fileClient.IsFileExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return utils.DefaultConfig()
	}
	cfg, err := utils.LoadConfig(path, fileClient)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

func newLogger(cfg *utils.Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	var l zerolog.Logger
	if cfg.Log.Pretty {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		l = zerolog.New(os.Stderr)
	}
	return l.Level(level).With().Timestamp().Logger(), nil
}

func dbPath() string {
	if config.Storage.Path != "" {
		return config.Storage.Path
	}
	return store.DefaultDBPath()
}

func openStore() (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(dbPath(), logger.With().Str("component", "store").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return s, nil
}

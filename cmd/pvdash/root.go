package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jgoulah/pvdash/internal/config"
	"github.com/jgoulah/pvdash/internal/database"
	"github.com/jgoulah/pvdash/internal/ingest"
	"github.com/jgoulah/pvdash/internal/logging"
	"github.com/jgoulah/pvdash/internal/metrics"
	"github.com/jgoulah/pvdash/internal/session"
	"github.com/jgoulah/pvdash/pkg/models"
)

var (
	cfgFile  string
	dbPath   string
	maxRows  int
	logLevel string

	loadedConfig *config.Config
)

// errLoadFailed is returned after the load status has been printed
var errLoadFailed = errors.New("failed to load the data")

var rootCmd = &cobra.Command{
	Use:   "pvdash",
	Short: "Analyze PV inverter telemetry exports",
	Long: `pvdash loads a CSV export of PV inverter telemetry (date, ac_power, ac_energy_today)
and derives per-day production statistics and a multi-day time-of-day overlay.
Views can be printed, exported, archived in a local SQLite database, published to
MQTT or Home Assistant, or served over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./data.db)")
	rootCmd.PersistentFlags().IntVar(&maxRows, "max-rows", 0, "keep only the first N rows of the export (0 = no cap, default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
}

// setup loads the config and configures logging and metrics
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logCfg := cfg.Logging
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	logger, err := logging.NewFromConfig(logCfg)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	logging.SetGlobal(logger)
	metrics.Init(nil)

	return nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path (local directory)
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return "data.db"
}

// loadConfig loads the configuration file once per process
func loadConfig() (*config.Config, error) {
	if loadedConfig != nil {
		return loadedConfig, nil
	}
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	loadedConfig = cfg
	return cfg, nil
}

// getMaxRows returns the row cap, the flag taking precedence over the config
func getMaxRows(cfg *config.Config) int {
	if rootCmd.PersistentFlags().Changed("max-rows") && maxRows >= 0 {
		return maxRows
	}
	return cfg.GetMaxRows()
}

// openDB opens the database connection
func openDB() (*database.DB, error) {
	path := getDBPath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// resolveSource returns the export to load: the argument, else input.path
func resolveSource(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Input.Path != "" {
		return cfg.Input.Path, nil
	}
	return "", fmt.Errorf("no input file: pass a file argument or set input.path in config")
}

// loadDataset loads an export into a session dataset without checking its
// status. A failure to create the S3 client is recorded in that status.
func loadDataset(ctx context.Context, source string, cfg *config.Config) *models.Dataset {
	opts := ingest.Options{MaxRows: getMaxRows(cfg)}
	if ingest.IsS3(source) {
		client, err := ingest.NewS3Client(ctx, cfg.S3)
		if err != nil {
			opts.S3Err = fmt.Errorf("creating S3 client: %w", err)
		} else {
			opts.S3 = client
		}
	}
	return ingest.Load(ctx, source, opts)
}

// loadView loads the export named by args. When loading fails the status is
// written to out and errLoadFailed returned, so no view is rendered.
func loadView(ctx context.Context, out io.Writer, args []string) (*session.View, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	source, err := resolveSource(args, cfg)
	if err != nil {
		return nil, err
	}

	v := session.NewView(loadDataset(ctx, source, cfg))
	if !v.OK() {
		fmt.Fprintln(out, "Failed to load the data:")
		fmt.Fprintln(out, v.StatusText())
		return nil, errLoadFailed
	}
	if v.Truncated() {
		fmt.Fprintf(out, "Note: only the first %d rows were loaded (row cap)\n", getMaxRows(cfg))
	}

	return v, nil
}

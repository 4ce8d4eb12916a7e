// Package cli wires the plectrum commands: import, dedup, watch, version.
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/plectrum/plectrum/internal/config"
	"github.com/plectrum/plectrum/internal/database"
	"github.com/plectrum/plectrum/internal/logging"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the plectrum CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "plectrum",
		Short:         "Classical repertoire catalog builder",
		Long:          "Imports repertoire CSV exports into a unified composer/work catalog,\nmerging duplicate sightings across sources.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", defaultConfigPath(), "path to config file")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewDedupCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// Execute runs the CLI, printing errors to stderr.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func defaultConfigPath() string {
	if v := os.Getenv("PL_CONFIG_PATH"); v != "" {
		return v
	}
	return "/data/config.yaml"
}

// env is the shared runtime every database-backed command needs: loaded
// config, configured logger, and a migrated database handle.
type env struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sql.DB
	logCloser io.Closer
}

// openEnv loads config, sets up logging, and opens the migrated database.
func openEnv(opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, closer := logging.New(logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FilePath:       cfg.Logging.FilePath,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxFiles:   cfg.Logging.FileMaxFiles,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	})
	slog.SetDefault(logger)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		if closer != nil {
			closer.Close() //nolint:errcheck
		}
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close() //nolint:errcheck
		if closer != nil {
			closer.Close() //nolint:errcheck
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	return &env{cfg: cfg, logger: logger, db: db, logCloser: closer}, nil
}

// close releases the environment's resources.
func (e *env) close() {
	if err := e.db.Close(); err != nil {
		e.logger.Error("closing database", slog.Any("error", err))
	}
	if e.logCloser != nil {
		e.logCloser.Close() //nolint:errcheck
	}
}

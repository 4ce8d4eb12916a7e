package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/plectrum/plectrum/internal/ingest"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Import   ImportConfig   `yaml:"import"`
	Watch    WatchConfig    `yaml:"watch"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// ImportConfig holds import pipeline settings.
type ImportConfig struct {
	BatchSize int            `yaml:"batch_size"`
	Sources   []SourceConfig `yaml:"sources"`
}

// SourceConfig describes one CSV catalog export to import.
type SourceConfig struct {
	Name        string        `yaml:"name"`
	Path        string        `yaml:"path"`
	URL         string        `yaml:"url"`
	Description string        `yaml:"description"`
	LinkField   string        `yaml:"link_field"`
	Columns     ColumnsConfig `yaml:"columns"`
}

// ColumnsConfig overrides CSV header names for one source. Unset entries
// fall back to the shared defaults.
type ColumnsConfig struct {
	ExternalID      string `yaml:"external_id"`
	Composer        string `yaml:"composer"`
	BirthYear       string `yaml:"birth_year"`
	DeathYear       string `yaml:"death_year"`
	Country         string `yaml:"country"`
	Title           string `yaml:"title"`
	Subtitle        string `yaml:"subtitle"`
	Instrumentation string `yaml:"instrumentation"`
	Opus            string `yaml:"opus"`
	CompositionYear string `yaml:"composition_year"`
	Duration        string `yaml:"duration"`
	Movements       string `yaml:"movements"`
	Link            string `yaml:"link"`
}

// WatchConfig holds source file watcher settings.
type WatchConfig struct {
	DebounceSeconds int `yaml:"debounce_seconds"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "/data/plectrum.db",
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "json",
			FileMaxSizeMB:  100,
			FileMaxFiles:   3,
			FileMaxAgeDays: 30,
		},
		Import: ImportConfig{
			BatchSize: ingest.DefaultBatchSize,
		},
		Watch: WatchConfig{
			DebounceSeconds: 5,
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("PL_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("PL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PL_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PL_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("PL_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Import.BatchSize = n
		}
	}
	if v := os.Getenv("PL_WATCH_DEBOUNCE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Watch.DebounceSeconds = n
		}
	}
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Import.BatchSize < 1 {
		return fmt.Errorf("invalid batch size: %d", c.Import.BatchSize)
	}
	if c.Watch.DebounceSeconds < 1 {
		return fmt.Errorf("invalid watch debounce: %d", c.Watch.DebounceSeconds)
	}
	seen := make(map[string]bool, len(c.Import.Sources))
	for i, src := range c.Import.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name: %s", src.Name)
		}
		seen[src.Name] = true
		if src.Path == "" {
			return fmt.Errorf("source %s: path is required", src.Name)
		}
		if src.LinkField != "" && !ingest.ValidLinkField(src.LinkField) {
			return fmt.Errorf("source %s: unknown link field %q", src.Name, src.LinkField)
		}
	}
	return nil
}

// Sources converts the configured sources into the ingest package's form.
func (c *Config) Sources() []ingest.Source {
	sources := make([]ingest.Source, 0, len(c.Import.Sources))
	for _, src := range c.Import.Sources {
		linkField := src.LinkField
		if linkField == "" {
			linkField = ingest.LinkFieldScore
		}
		sources = append(sources, ingest.Source{
			Name:        src.Name,
			Path:        src.Path,
			URL:         src.URL,
			Description: src.Description,
			LinkField:   linkField,
			Columns: ingest.ColumnMap{
				ExternalID:      src.Columns.ExternalID,
				Composer:        src.Columns.Composer,
				BirthYear:       src.Columns.BirthYear,
				DeathYear:       src.Columns.DeathYear,
				Country:         src.Columns.Country,
				Title:           src.Columns.Title,
				Subtitle:        src.Columns.Subtitle,
				Instrumentation: src.Columns.Instrumentation,
				Opus:            src.Columns.Opus,
				CompositionYear: src.Columns.CompositionYear,
				Duration:        src.Columns.Duration,
				Movements:       src.Columns.Movements,
				Link:            src.Columns.Link,
			},
		})
	}
	return sources
}

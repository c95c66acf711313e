// Package config holds the location of the database files and the logging
// setup.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"

	"github.com/mateconpizza/webstore/internal/storage"
)

// version of the application.
var version = "0.1.0"

const (
	appName         string = "webstore"   // Default name of the application
	DefaultFilename string = "config.yml" // Default config filename
	EnvHome         string = "WEBSTORE_HOME"
)

var (
	ErrConfigFileExists = errors.New("config file already exists")
	ErrUnknownDriver    = errors.New("unknown database driver")
	ErrDBNameEmpty      = errors.New("database name cannot be empty")
)

// Config locates the database files. The zero value is not usable; start
// from Default.
type Config struct {
	Dir            string `yaml:"dir"`              // Directory holding the databases
	Driver         string `yaml:"driver"`           // database/sql driver name
	BookmarksDB    string `yaml:"bookmarks_db"`     // Bookmarks, directories and tags
	HistoryDB      string `yaml:"history_db"`       // History and favicons
	HistoryTestDB  string `yaml:"history_test_db"`  // History in test mode
	SettingsDB     string `yaml:"settings_db"`      // Settings
	SettingsTestDB string `yaml:"settings_test_db"` // Settings in test mode
	SessionDB      string `yaml:"session_db"`       // Saved sessions
}

// Name returns the application name.
func Name() string { return appName }

// Version returns the application version.
func Version() string { return version }

// Default returns the configuration with the database files in the user
// data directory. WEBSTORE_HOME overrides the directory.
func Default() (*Config, error) {
	dir := os.Getenv(EnvHome)
	if dir == "" {
		var err error
		if dir, err = DataPath(); err != nil {
			return nil, err
		}
	}

	return &Config{
		Dir:            dir,
		Driver:         storage.DriverModernc,
		BookmarksDB:    "bookmarks.db",
		HistoryDB:      "history.db",
		HistoryTestDB:  "history_test.db",
		SettingsDB:     "settings.db",
		SettingsTestDB: "settings_test.db",
		SessionDB:      "session.db",
	}, nil
}

// Load reads the YAML file at p over the defaults. A missing file yields
// the defaults.
func Load(p string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("configfile not found, loading defaults", "path", p)
		return cfg, nil
	}

	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("loading configfile", "path", p)

	return cfg, nil
}

// Dump writes c to the YAML file at p. An existing file is only replaced
// when force is set.
func (c *Config) Dump(p string, force bool) error {
	if _, err := os.Stat(p); err == nil && !force {
		return fmt.Errorf("%s %w. use '--force' to overwrite", p, ErrConfigFileExists)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error marshalling YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("error creating config dir: %w", err)
	}

	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

// Validate checks the driver is known and linked and that every database
// has a name.
func (c *Config) Validate() error {
	switch c.Driver {
	case storage.DriverModernc, storage.DriverCgo:
		if !storage.Registered(c.Driver) {
			return fmt.Errorf("%w: %q is not linked in this build", ErrUnknownDriver, c.Driver)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}

	for _, name := range []string{
		c.BookmarksDB, c.HistoryDB, c.HistoryTestDB,
		c.SettingsDB, c.SettingsTestDB, c.SessionDB,
	} {
		if name == "" {
			return ErrDBNameEmpty
		}
	}

	return nil
}

// Path returns the full path of database file name.
func (c *Config) Path(name string) string {
	return filepath.Join(c.Dir, name)
}

// SetVerbosity installs the default logger. Each level of verbose lowers
// the threshold, from errors only down to debug.
func SetVerbosity(verbose int) {
	levels := []slog.Level{
		slog.LevelError,
		slog.LevelWarn,
		slog.LevelInfo,
		slog.LevelDebug,
	}
	level := levels[max(0, min(verbose, len(levels)-1))]

	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == "source" {
					if source, ok := a.Value.Any().(*slog.Source); ok {
						dir, file := filepath.Split(source.File)
						source.File = filepath.Join(filepath.Base(filepath.Clean(dir)), file)

						return slog.Attr{Key: "source", Value: slog.AnyValue(source)}
					}
				}

				return a
			},
		}),
	)
	slog.SetDefault(logger)

	slog.Debug("logging", "level", level)
}

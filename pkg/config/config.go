// Package config loads the board's settings from a YAML file, with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "kanban.yaml"

// envPrefix is prepended to every environment override, e.g. KANBAN_STORE_BACKEND.
const envPrefix = "KANBAN_"

const defaultConfigYAML = `# kanban-sheets configuration

store:
  # memory, sqlite, xlsx or google
  backend: sqlite
  # file used by the sqlite and xlsx backends
  path: kanban.sqlite
  google:
    spreadsheet_id: ""
    credentials_file: credentials.json
    requests_per_minute: 60

log:
  file: kanban.log
  level: debug

export:
  path: kanban_export.xlsx

images:
  max_width: 800
  max_height: 600
  quality: 85
`

// StoreConfig selects the spreadsheet backend.
type StoreConfig struct {
	Backend string       `yaml:"backend"`
	Path    string       `yaml:"path"`
	Google  GoogleConfig `yaml:"google"`
}

// GoogleConfig configures the Google Sheets backend.
type GoogleConfig struct {
	SpreadsheetID     string `yaml:"spreadsheet_id"`
	CredentialsFile   string `yaml:"credentials_file"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// LogConfig configures the log file.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// ExportConfig configures where workbook exports are written.
type ExportConfig struct {
	Path string `yaml:"path"`
}

// ImageConfig bounds evidence photos.
type ImageConfig struct {
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
	Quality   int `yaml:"quality"`
}

// Config models kanban.yaml.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Export ExportConfig `yaml:"export"`
	Images ImageConfig  `yaml:"images"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), cfg); err != nil {
		panic(fmt.Sprintf("default config does not parse: %v", err))
	}

	return cfg
}

// Load reads the file at path over the defaults and applies environment overrides. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)

	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("error reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WriteDefault writes the commented default config to path unless a file already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"STORE_BACKEND":         &c.Store.Backend,
		"STORE_PATH":            &c.Store.Path,
		"GOOGLE_SPREADSHEET_ID": &c.Store.Google.SpreadsheetID,
		"GOOGLE_CREDENTIALS":    &c.Store.Google.CredentialsFile,
		"LOG_FILE":              &c.Log.File,
		"LOG_LEVEL":             &c.Log.Level,
		"EXPORT_PATH":           &c.Export.Path,
	}

	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"GOOGLE_REQUESTS_PER_MINUTE": &c.Store.Google.RequestsPerMinute,
		"IMAGE_MAX_WIDTH":            &c.Images.MaxWidth,
		"IMAGE_MAX_HEIGHT":           &c.Images.MaxHeight,
		"IMAGE_QUALITY":              &c.Images.Quality,
	}

	for key, dst := range ints {
		v, ok := lookup(envPrefix + key)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %q is not a number", envPrefix, key, v)
		}

		*dst = n
	}

	return nil
}

// Validate checks the settings for values the program cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case sheet.BackendMemory:
	case sheet.BackendSQLite, sheet.BackendWorkbook:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the %s backend", c.Store.Backend)
		}
	case sheet.BackendGoogle:
		if c.Store.Google.SpreadsheetID == "" {
			return errors.New("store.google.spreadsheet_id is required for the google backend")
		}

		if c.Store.Google.CredentialsFile == "" {
			return errors.New("store.google.credentials_file is required for the google backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("images.quality must be 1-100, got %d", c.Images.Quality)
	}

	if c.Images.MaxWidth < 1 || c.Images.MaxHeight < 1 {
		return fmt.Errorf("images bounds must be positive, got %dx%d", c.Images.MaxWidth, c.Images.MaxHeight)
	}

	return nil
}

// StoreOptions converts the store settings for sheet.Open.
func (c *Config) StoreOptions() sheet.Options {
	return sheet.Options{
		Backend: c.Store.Backend,
		Path:    c.Store.Path,
		Google: sheet.GoogleConfig{
			SpreadsheetID:     c.Store.Google.SpreadsheetID,
			CredentialsFile:   c.Store.Google.CredentialsFile,
			RequestsPerMinute: c.Store.Google.RequestsPerMinute,
		},
	}
}

// LogLevel returns the parsed log level, defaulting to debug.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.DebugLevel
	}

	return level
}

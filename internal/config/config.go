package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project config file at the repository root.
const FileName = "accrual.yaml"

// Storage backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config represents the top-level accrual.yaml configuration.
type Config struct {
	Account AccountConfig `yaml:"account"`
	Storage StorageConfig `yaml:"storage"`
	Git     GitConfig     `yaml:"git"`
	Log     LogConfig     `yaml:"log"`
}

// AccountConfig identifies the account the ledger belongs to.
type AccountConfig struct {
	Name string `yaml:"name"`
}

// StorageConfig selects where the ledger lives.
type StorageConfig struct {
	Backend    string `yaml:"backend"`               // "csv" or "sqlite"
	SQLitePath string `yaml:"sqlite_path,omitempty"` // relative to the project root
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig controls diagnostic output on stderr.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Path returns the config file path inside a project directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads an accrual.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadProject loads the config of the project in dir: the optional .env
// file first, then accrual.yaml, then environment overrides. The result is
// validated.
func LoadProject(dir string) (*Config, error) {
	if err := LoadEnvFile(dir); err != nil {
		return nil, err
	}
	cfg, err := Load(Path(dir))
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(accountName string) *Config {
	return &Config{
		Account: AccountConfig{
			Name: accountName,
		},
		Storage: StorageConfig{
			Backend:    BackendCSV,
			SQLitePath: filepath.Join("ledger", "accrual.db"),
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Accrual",
			AuthorEmail: "accrual@localhost",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Environment variables that override accrual.yaml.
const (
	EnvStorageBackend = "ACCRUAL_STORAGE_BACKEND"
	EnvSQLitePath     = "ACCRUAL_SQLITE_PATH"
	EnvLogLevel       = "ACCRUAL_LOG_LEVEL"
	EnvLogFormat      = "ACCRUAL_LOG_FORMAT"
)

// LoadEnvFile loads dir/.env into the process environment if it exists.
// Variables already set are left alone.
func LoadEnvFile(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg fields from non-empty environment variables.
func ApplyEnv(cfg *Config) {
	cfg.Storage.Backend = getEnv(EnvStorageBackend, cfg.Storage.Backend)
	cfg.Storage.SQLitePath = getEnv(EnvSQLitePath, cfg.Storage.SQLitePath)
	cfg.Log.Level = getEnv(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Format = getEnv(EnvLogFormat, cfg.Log.Format)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Backend {
	case BackendCSV:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			problems = append(problems, "storage.sqlite_path cannot be empty when using the sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid storage.backend %q: must be %q or %q", c.Storage.Backend, BackendCSV, BackendSQLite))
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log.format %q: must be \"text\" or \"json\"", c.Log.Format))
	}

	if c.Git.AutoCommit && (c.Git.AuthorName == "" || c.Git.AuthorEmail == "") {
		problems = append(problems, "git.author_name and git.author_email are required when git.auto_commit is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

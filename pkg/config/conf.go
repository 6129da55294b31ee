package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AppDirName     = ".partscore"
	configFileName = "config.yaml"
	dataFileName   = "data.db"
	envFileName    = ".env"
	dirMode        = 0700
	fileMode       = 0600

	EnvDriver      = "PARTSCORE_DRIVER"
	EnvDSN         = "PARTSCORE_DSN"
	EnvDatabaseURL = "DATABASE_URL"
	EnvLogLevel    = "PARTSCORE_LOG_LEVEL"
	EnvFormat      = "PARTSCORE_FORMAT"
	EnvParallel    = "PARTSCORE_PARALLEL"
	EnvPort        = "PARTSCORE_PORT"

	FormatJSON = "json"
	FormatYAML = "yaml"

	defaultDriver   = "sqlite"
	defaultLogLevel = "info"
	defaultPort     = 8080
)

// Config represents app config object.
type Config struct {
	Driver   string `json:"driver" yaml:"driver"`
	DSN      string `json:"dsn" yaml:"dsn"`
	LogLevel string `json:"log_level" yaml:"log_level"`
	Format   string `json:"format" yaml:"format"`
	Parallel bool   `json:"parallel" yaml:"parallel"`
	Port     int    `json:"port" yaml:"port"`
}

// Default returns the config used when nothing else is set. The sqlite
// database lives in dir.
func Default(dir string) *Config {
	return &Config{
		Driver:   defaultDriver,
		DSN:      filepath.Join(dir, dataFileName),
		LogLevel: defaultLogLevel,
		Format:   FormatJSON,
		Port:     defaultPort,
	}
}

// DefaultPath returns the config file location in the app home dir.
func DefaultPath() (string, error) {
	dir, _, err := GetOrCreateHomeDir(AppDirName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load builds the config from defaults, the yaml file at path, a .env file
// in the working directory and finally the environment. An empty path means
// the default location; a missing file is fine.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("error resolving config path: %w", err)
		}
		path = p
	}

	c := Default(filepath.Dir(path))

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("no config file, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
		slog.Debug("config loaded", "path", path)
	}

	if err := godotenv.Load(envFileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading %s: %w", envFileName, err)
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvDatabaseURL); ok && v != "" {
		c.Driver = driverPostgres
		c.DSN = v
	}
	if v, ok := os.LookupEnv(EnvDriver); ok && v != "" {
		c.Driver = v
	}
	if v, ok := os.LookupEnv(EnvDSN); ok && v != "" {
		c.DSN = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvFormat); ok && v != "" {
		c.Format = v
	}
	if v, ok := os.LookupEnv(EnvParallel); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvParallel, v, err)
		}
		c.Parallel = b
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvPort, v, err)
		}
		c.Port = p
	}
	return nil
}

// Validate checks the values that can be checked without a database.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}

	switch f := strings.ToLower(c.Format); f {
	case FormatJSON, FormatYAML:
		c.Format = f
	case "yml":
		c.Format = FormatYAML
	default:
		return fmt.Errorf("invalid format %q (permitted options: %s, %s)", c.Format, FormatJSON, FormatYAML)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	return nil
}

// Save writes the config file, creating its directory when needed.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}

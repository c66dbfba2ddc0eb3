package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendHTTP     = "http"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	DefaultStoreURL     = "http://localhost:3001"
	DefaultGeneratorURL = "http://localhost:5050"
	DefaultMaterialsDir = "./materials"
	DefaultPacing       = 50 * time.Millisecond
	DefaultStoreTimeout = 30 * time.Second
	DefaultGenTimeout   = 5 * time.Minute
)

// Environment overrides, applied after the config file.
const (
	EnvStoreURL     = "CARDFORGE_STORE_URL"
	EnvGeneratorURL = "CARDFORGE_GENERATOR_URL"
	EnvDatabaseURL  = "CARDFORGE_DATABASE_URL"
	EnvMaterialsDir = "CARDFORGE_MATERIALS_DIR"
	EnvLogLevel     = "CARDFORGE_LOG_LEVEL"
)

var ErrUnknownBackend = errors.New("config: unknown store backend")

type Config struct {
	Store struct {
		Backend     string        `yaml:"backend" toml:"backend"`
		URL         string        `yaml:"url" toml:"url"`
		DatabaseURL string        `yaml:"database_url" toml:"database_url"`
		Timeout     time.Duration `yaml:"timeout" toml:"timeout"`
	} `yaml:"store" toml:"store"`
	Generator struct {
		URL     string        `yaml:"url" toml:"url"`
		Timeout time.Duration `yaml:"timeout" toml:"timeout"`
	} `yaml:"generator" toml:"generator"`
	Materials struct {
		Dir    string `yaml:"dir" toml:"dir"`
		Remote bool   `yaml:"remote" toml:"remote"`
	} `yaml:"materials" toml:"materials"`
	Pipeline struct {
		// Pacing is the pause after each generated card; negative disables it.
		Pacing time.Duration `yaml:"pacing" toml:"pacing"`
	} `yaml:"pipeline" toml:"pipeline"`
	Log struct {
		Level   string `yaml:"level" toml:"level"`
		Verbose bool   `yaml:"verbose" toml:"verbose"`
	} `yaml:"log" toml:"log"`
}

// Load reads path (YAML or TOML by extension; empty path skips the file),
// overlays environment variables and fills defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnvFiles loads variables from .env style files into the process
// environment. Missing files are skipped and existing variables win.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvStoreURL, &c.Store.URL)
	set(EnvGeneratorURL, &c.Generator.URL)
	set(EnvDatabaseURL, &c.Store.DatabaseURL)
	set(EnvMaterialsDir, &c.Materials.Dir)
	set(EnvLogLevel, &c.Log.Level)
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = BackendHTTP
	}
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	if c.Store.URL == "" {
		c.Store.URL = DefaultStoreURL
	}
	if c.Store.Timeout == 0 {
		c.Store.Timeout = DefaultStoreTimeout
	}
	if c.Generator.URL == "" {
		c.Generator.URL = DefaultGeneratorURL
	}
	if c.Generator.Timeout == 0 {
		c.Generator.Timeout = DefaultGenTimeout
	}
	if c.Materials.Dir == "" {
		c.Materials.Dir = DefaultMaterialsDir
	}
	if c.Pipeline.Pacing == 0 {
		c.Pipeline.Pacing = DefaultPacing
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendHTTP, BackendMemory:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("postgres backend needs store.database_url or %s", EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}
	return nil
}

// PacingDelay is the effective pause between generated cards.
func (c *Config) PacingDelay() time.Duration {
	return max(0, c.Pipeline.Pacing)
}

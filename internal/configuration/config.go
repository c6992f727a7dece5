package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix      = "DEEPGUARD_"
	DefaultAPI     = "https://deepguard.io/api/v1"
	defaultTimeout = 60
)

type Config struct {
	API            string `koanf:"api"`
	Token          string `koanf:"token"`
	ID             string `koanf:"id"`
	TimeoutSeconds int    `koanf:"timeout"`
	Debug          bool   `koanf:"debug"`
	Dev            bool   `koanf:"dev"`

	// Path is the file the configuration was read from.
	Path        string `koanf:"-"`
	generatedID bool
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultPath is ~/.config/deepguard/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".config", "deepguard", "config.yaml"), nil
}

// Load reads the optional YAML file at path, then lets DEEPGUARD_* environment
// variables override it. An empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	k := koanf.New(".")

	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if err == nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error unmarshalling configuration %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment configuration: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	config.Path = path
	applyDefaults(&config)
	return &config, nil
}

// PersistID writes a freshly generated client id back to the configuration
// file so snapshots from later runs on this machine share it. Only the file's
// own keys are written, never values that came from the environment.
func PersistID(config *Config) error {
	if !config.generatedID {
		return nil
	}

	k := koanf.New(".")

	content, err := os.ReadFile(config.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err == nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return fmt.Errorf("error unmarshalling configuration %s: %w", config.Path, err)
		}
	}

	if err := k.Set("id", config.ID); err != nil {
		return fmt.Errorf("error setting client id: %w", err)
	}

	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("error marshalling configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0o700); err != nil {
		return fmt.Errorf("error creating configuration directory: %w", err)
	}

	if err := os.WriteFile(config.Path, data, 0o600); err != nil {
		return fmt.Errorf("error writing file at %s, %w", config.Path, err)
	}

	config.generatedID = false
	return nil
}

func applyDefaults(config *Config) {
	if config.API == "" {
		config.API = DefaultAPI
	}

	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = defaultTimeout
	}

	if config.ID == "" {
		config.ID = uuid.NewString()
		config.generatedID = true
	}
}

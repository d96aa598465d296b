package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/stash/pkg/logging"
	"github.com/ssargent/stash/pkg/store"
)

// Config represents the stash configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Backend  string   `yaml:"backend"`
	Journal  Journal  `yaml:"journal"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
}

// Journal contains the settings every journal is opened with
type Journal struct {
	Verify   bool `yaml:"verify"`
	Capacity int  `yaml:"capacity"` // maximum log size in bytes, 0 for unbounded
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"` // empty disables authentication of the inspection API
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Backend: store.BackendFile,
		Journal: Journal{
			Verify:   true,
			Capacity: 1 << 20,
		},
		Port: 8080,
		Bind: "127.0.0.1",
		Logging: Logging{
			Level:  "info",
			Format: string(logging.FormatText),
		},
	}
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	switch strings.ToLower(c.Backend) {
	case "", store.BackendFile, store.BackendPebble:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Journal.Capacity < 0 {
		return fmt.Errorf("journal capacity must not be negative, got %d", c.Journal.Capacity)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	return nil
}

// StoreConfig returns the snapshot store settings
func (c *Config) StoreConfig() store.Config {
	return store.Config{Backend: c.Backend, Dir: c.DataDir}
}

// LoggingConfig returns the logger settings
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Logging.Level)
	cfg.Format = logging.ParseFormat(c.Logging.Format)
	return cfg
}

// LoadConfig loads configuration from the specified path. Settings missing from the
// file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./stash.yaml"
	}

	// For Linux/macOS, use ~/.config/stash/config.yaml
	return filepath.Join(homeDir, ".config", "stash", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

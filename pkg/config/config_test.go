package config

import (
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/stash/pkg/logging"
	"github.com/ssargent/stash/pkg/store"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, store.BackendFile, config.Backend)
	assert.True(t, config.Journal.Verify)
	assert.Equal(t, 1<<20, config.Journal.Capacity)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Empty(t, config.Security.APIKey)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
	assert.NoError(t, config.Validate())
}

func TestGenerateSecureKey(t *testing.T) {
	t.Run("generate 32 byte key", func(t *testing.T) {
		key, err := GenerateSecureKey(32)
		require.NoError(t, err)
		assert.Len(t, key, 64) // 32 bytes = 64 hex characters

		_, err = hex.DecodeString(key)
		assert.NoError(t, err)
	})

	t.Run("generate different keys", func(t *testing.T) {
		key1, err := GenerateSecureKey(16)
		require.NoError(t, err)
		key2, err := GenerateSecureKey(16)
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})

	t.Run("zero length", func(t *testing.T) {
		key, err := GenerateSecureKey(0)
		require.NoError(t, err)
		assert.Empty(t, key)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		expectedConfig := &Config{
			DataDir: "/custom/data",
			Backend: store.BackendPebble,
			Journal: Journal{Verify: false, Capacity: 4096},
			Port:    9000,
			Bind:    "0.0.0.0",
			Security: Security{
				APIKey: "test-api-key",
			},
			Logging: Logging{
				Level:  "debug",
				Format: "json",
			},
		}

		err := SaveConfig(expectedConfig, configPath)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("missing settings keep defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "partial.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("data_dir: /srv/stash\nport: 9100\n"), 0600))

		loaded, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, "/srv/stash", loaded.DataDir)
		assert.Equal(t, 9100, loaded.Port)
		assert.True(t, loaded.Journal.Verify)
		assert.Equal(t, store.BackendFile, loaded.Backend)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("load invalid settings", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "backend.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("backend: tape\n"), 0600))

		_, err := LoadConfig(configPath)
		assert.ErrorContains(t, err, "unknown backend")
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data_dir is required"},
		{"unknown backend", func(c *Config) { c.Backend = "s3" }, "unknown backend"},
		{"negative capacity", func(c *Config) { c.Journal.Capacity = -1 }, "capacity"},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "port out of range"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			assert.ErrorContains(t, config.Validate(), tc.want)
		})
	}

	config := DefaultConfig()
	config.Backend = "PEBBLE"
	assert.NoError(t, config.Validate())
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := DefaultConfig()

	err := SaveConfig(config, configPath)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	dataDir := "/custom/data/dir"

	config, err := BootstrapConfig(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, config.DataDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Equal(t, "info", config.Logging.Level)

	assert.Len(t, config.Security.APIKey, 64)
	_, err = hex.DecodeString(config.Security.APIKey)
	assert.NoError(t, err)

	assert.True(t, ConfigExists(configPath))

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestConfig_Derived(t *testing.T) {
	config := DefaultConfig()
	config.Backend = store.BackendPebble
	config.Logging = Logging{Level: "DEBUG", Format: "JSON"}

	sc := config.StoreConfig()
	assert.Equal(t, store.BackendPebble, sc.Backend)
	assert.Equal(t, "./data", sc.Dir)

	lc := config.LoggingConfig()
	assert.Equal(t, slog.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "stash")
	assert.Contains(t, path, "config.yaml")
}

func TestConfigExists(t *testing.T) {
	tmpDir := t.TempDir()

	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	err := os.WriteFile(existingPath, []byte("test"), 0644)
	require.NoError(t, err)

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestConfigYAMLMarshalling(t *testing.T) {
	config := &Config{
		DataDir: "/test/data",
		Backend: store.BackendFile,
		Journal: Journal{Verify: true, Capacity: 512},
		Port:    9999,
		Bind:    "localhost",
		Security: Security{
			APIKey: "api-key-123",
		},
		Logging: Logging{
			Level: "warn",
		},
	}

	data, err := yaml.Marshal(config)
	require.NoError(t, err)
	assert.Contains(t, string(data), "api_key: api-key-123")

	var unmarshalled Config
	err = yaml.Unmarshal(data, &unmarshalled)
	require.NoError(t, err)

	assert.Equal(t, config, &unmarshalled)
}

func TestSaveConfigErrorHandling(t *testing.T) {
	config := DefaultConfig()

	// a regular file cannot hold a directory
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	invalidPath := filepath.Join(blocker, "nested", "config.yaml")

	err := SaveConfig(config, invalidPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}

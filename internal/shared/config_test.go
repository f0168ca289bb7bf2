package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://localhost:8000/api" {
			t.Errorf("expected base url http://localhost:8000/api, got %s", config.API.BaseURL)
		}

		if !config.API.Grouped {
			t.Error("expected grouped fetch to be enabled by default")
		}

		if config.Storage.Path != "./tcgtrack.db" {
			t.Errorf("expected storage path ./tcgtrack.db, got %s", config.Storage.Path)
		}

		if config.Import.Workers != 4 {
			t.Errorf("expected 4 import workers, got %d", config.Import.Workers)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Storage.Path != defaultConfig.Storage.Path {
			t.Errorf("created config storage path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://cards.example.com/api"
timeout = 5
grouped = false

[storage]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://cards.example.com/api" {
			t.Errorf("expected custom base url, got %s", config.API.BaseURL)
		}

		if config.API.Grouped {
			t.Error("expected grouped fetch to be disabled")
		}

		if config.API.TimeoutDuration() != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", config.API.TimeoutDuration())
		}

		if config.Storage.Path != "/custom/path.db" {
			t.Errorf("expected storage path /custom/path.db, got %s", config.Storage.Path)
		}

		if config.Import.Workers != 4 {
			t.Errorf("unset sections should keep defaults, got %d workers", config.Import.Workers)
		}
	})

	t.Run("LoadConfig rejects invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[api\nbase_url ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(EnvAPIURL, "http://10.0.0.2:8000/api")
		t.Setenv(EnvStoragePath, "/tmp/env.db")
		t.Setenv(EnvLogLevel, "debug")
		t.Setenv(EnvAPITimeout, "42")

		config := DefaultConfig()
		if err := config.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.API.BaseURL != "http://10.0.0.2:8000/api" {
			t.Errorf("expected env base url, got %s", config.API.BaseURL)
		}
		if config.Storage.Path != "/tmp/env.db" {
			t.Errorf("expected env storage path, got %s", config.Storage.Path)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected env log level, got %s", config.Log.Level)
		}
		if config.API.Timeout != 42 {
			t.Errorf("expected env timeout, got %d", config.API.Timeout)
		}
	})

	t.Run("ApplyEnv rejects bad timeout", func(t *testing.T) {
		t.Setenv(EnvAPITimeout, "soon")

		err := DefaultConfig().ApplyEnv()
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		dir := t.TempDir()
		envPath := filepath.Join(dir, ".env")
		if err := os.WriteFile(envPath, []byte("TCGTRACK_TEST_VALUE=from-dotenv\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("TCGTRACK_TEST_VALUE") })

		if err := LoadEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}

		if got := os.Getenv("TCGTRACK_TEST_VALUE"); got != "from-dotenv" {
			t.Errorf("expected value from .env, got %q", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.API.BaseURL = ""
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for empty base url, got %v", err)
		}
	})
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	API       APIConfig  `json:"api"`
	Poll      PollConfig `json:"poll"`
	GuestMode bool       `json:"guest_mode"`
	LogLevel  string     `json:"log_level"`
	LogFormat string     `json:"log_format"`
	LogFile   string     `json:"log_file"`
}

// APIConfig holds the NEXORA backend API configuration
type APIConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// PollConfig holds the intervals for the background tasks, in seconds.
// A zero value disables the task.
type PollConfig struct {
	HealthSeconds     int `json:"health_seconds"`
	ErrorFlushSeconds int `json:"error_flush_seconds"`
	StateSaveSeconds  int `json:"state_save_seconds"`
}

// Health returns the backend probe interval.
func (p PollConfig) Health() time.Duration {
	return time.Duration(p.HealthSeconds) * time.Second
}

// ErrorFlush returns the error report flush interval.
func (p PollConfig) ErrorFlush() time.Duration {
	return time.Duration(p.ErrorFlushSeconds) * time.Second
}

// StateSave returns the state persistence interval.
func (p PollConfig) StateSave() time.Duration {
	return time.Duration(p.StateSaveSeconds) * time.Second
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "https://api.nexora.app",
			TimeoutSeconds: 30,
		},
		Poll: PollConfig{
			HealthSeconds:     60,
			ErrorFlushSeconds: 120,
			StateSaveSeconds:  30,
		},
		GuestMode: false,
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load loads configuration from the specified path.
// If the file doesn't exist, creates one with default values.
// Environment variables override file values.
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	var cfg Config

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = Default()
			if err := Save(configPath, cfg); err != nil {
				return Config{}, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	return applyEnvironmentOverrides(cfg), nil
}

// applyEnvironmentOverrides applies NEXORA_* environment variables to the config
func applyEnvironmentOverrides(cfg Config) Config {
	if baseURL := os.Getenv("NEXORA_API_URL"); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}

	if timeoutStr := os.Getenv("NEXORA_API_TIMEOUT"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil && timeout > 0 {
			cfg.API.TimeoutSeconds = timeout
		}
	}

	if logLevel := os.Getenv("NEXORA_LOG_LEVEL"); logLevel != "" {
		logLevel = strings.ToLower(logLevel)
		switch logLevel {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = logLevel
		}
	}

	if guestEnv := os.Getenv("NEXORA_GUEST_MODE"); guestEnv != "" {
		if guest, err := strconv.ParseBool(guestEnv); err == nil {
			cfg.GuestMode = guest
		}
	}

	return cfg
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api base_url is required (set NEXORA_API_URL or add to config file)")
	}

	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api base_url must be an http(s) URL, got: %s", c.API.BaseURL)
	}

	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api timeout_seconds must be positive, got: %d", c.API.TimeoutSeconds)
	}

	if c.Poll.HealthSeconds < 0 || c.Poll.ErrorFlushSeconds < 0 || c.Poll.StateSaveSeconds < 0 {
		return fmt.Errorf("poll intervals must not be negative")
	}

	return nil
}

// Dir returns the directory holding all NEXORA client state
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".nexora"
	}
	return filepath.Join(homeDir, ".nexora")
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	return filepath.Join(Dir(), "config.json")
}

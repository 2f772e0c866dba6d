package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the interpreter's user-editable settings.
type Config struct {
	// Execution settings
	Execution struct {
		EventDrainMillis int  `toml:"event_drain_millis"`
		PauseRatio       int  `toml:"pause_ratio"`
		MaxSteps         uint64 `toml:"max_steps"`
	} `toml:"execution"`

	// Display settings
	Display struct {
		Scale     int    `toml:"scale"`
		Title     string `toml:"title"`
		KeepAlive bool   `toml:"keep_alive"`
	} `toml:"display"`

	// Keys settings
	Keys struct {
		BindingsFile string `toml:"bindings_file"`
	} `toml:"keys"`

	// Trace settings
	Trace struct {
		EnableSourceMap bool `toml:"enable_source_map"`
		Diagnostic      bool `toml:"diagnostic"`
	} `toml:"trace"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.EventDrainMillis = 200
	cfg.Execution.PauseRatio = 1800
	cfg.Execution.MaxSteps = 0 // 0 = unlimited

	cfg.Display.Scale = 3
	cfg.Display.Title = "Axe Interpreter"
	cfg.Display.KeepAlive = false

	cfg.Keys.BindingsFile = ""

	cfg.Trace.EnableSourceMap = true
	cfg.Trace.Diagnostic = false

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\axe-interp\config.toml
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "axe-interp")

	case "darwin", "linux":
		// macOS/Linux: ~/.config/axe-interp/config.toml
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "axe-interp")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "axe-interp", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "axe-interp", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing
// file is not an error: the defaults are returned as-is.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

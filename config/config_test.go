package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Execution.EventDrainMillis != 200 {
		t.Errorf("Expected EventDrainMillis=200, got %d", cfg.Execution.EventDrainMillis)
	}
	if cfg.Execution.PauseRatio != 1800 {
		t.Errorf("Expected PauseRatio=1800, got %d", cfg.Execution.PauseRatio)
	}
	if cfg.Execution.MaxSteps != 0 {
		t.Errorf("Expected MaxSteps=0 (unlimited), got %d", cfg.Execution.MaxSteps)
	}

	if cfg.Display.Scale != 3 {
		t.Errorf("Expected Scale=3, got %d", cfg.Display.Scale)
	}
	if cfg.Display.Title != "Axe Interpreter" {
		t.Errorf("Expected Title=Axe Interpreter, got %s", cfg.Display.Title)
	}
	if cfg.Display.KeepAlive {
		t.Error("Expected KeepAlive=false")
	}

	if !cfg.Trace.EnableSourceMap {
		t.Error("Expected EnableSourceMap=true")
	}
	if cfg.Trace.Diagnostic {
		t.Error("Expected Diagnostic=false")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "axe-interp" && path != "config.toml" {
			t.Errorf("Expected path in axe-interp directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Execution.MaxSteps = 5000000
	cfg.Display.Scale = 5
	cfg.Display.KeepAlive = true
	cfg.Keys.BindingsFile = "custom.keys"
	cfg.Trace.Diagnostic = true

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Execution.MaxSteps != 5000000 {
		t.Errorf("Expected MaxSteps=5000000, got %d", loaded.Execution.MaxSteps)
	}
	if loaded.Display.Scale != 5 {
		t.Errorf("Expected Scale=5, got %d", loaded.Display.Scale)
	}
	if !loaded.Display.KeepAlive {
		t.Error("Expected KeepAlive=true")
	}
	if loaded.Keys.BindingsFile != "custom.keys" {
		t.Errorf("Expected BindingsFile=custom.keys, got %s", loaded.Keys.BindingsFile)
	}
	if !loaded.Trace.Diagnostic {
		t.Error("Expected Diagnostic=true")
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Execution.PauseRatio != 1800 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[execution]
max_steps = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()

	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}

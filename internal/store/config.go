package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the per-user configuration file.
type Config struct {
	Swipe *SwipeConfig `json:"swipe,omitempty"`
	Log   *LogConfig   `json:"log,omitempty"`
	TUI   *TUIConfig   `json:"tui,omitempty"`
}

// SwipeConfig overrides row geometry and spring feel. Zero fields keep the
// built-in defaults.
type SwipeConfig struct {
	// ActionWidth and Gap are in terminal columns.
	ActionWidth int `json:"actionWidth,omitempty"`
	Gap         int `json:"gap,omitempty"`
	// VelocityThreshold is in columns per second.
	VelocityThreshold float64 `json:"velocityThreshold,omitempty"`

	DampingRatio float64 `json:"dampingRatio,omitempty"`
	Stiffness    float64 `json:"stiffness,omitempty"`
}

type LogConfig struct {
	// Level is one of: debug|info|warn|error
	Level      string `json:"level,omitempty"`
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMb,omitempty"`
	MaxBackups int    `json:"maxBackups,omitempty"`
}

type TUIConfig struct {
	// ShowHaptics flashes a status indicator on haptic pulses.
	ShowHaptics *bool `json:"showHaptics,omitempty"`
	// FPS is the animation frame rate.
	FPS int `json:"fps,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.swipedo).
	if v := strings.TrimSpace(os.Getenv("SWIPEDO_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Unique temp name: the CLI and a running TUI may both write.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// LogLevel returns the configured level, or "" when unset.
func (c *Config) LogLevel() string {
	if c == nil || c.Log == nil {
		return ""
	}
	return strings.TrimSpace(c.Log.Level)
}

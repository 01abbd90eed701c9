// Package config loads the optional YAML config file. A missing file
// means defaults; nothing is ever written back.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const minPollInterval = 5 * time.Second

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

type Views struct {
	Claude *bool `yaml:"claude"`
	Cursor *bool `yaml:"cursor"`
}

type Config struct {
	PollInterval Duration `yaml:"poll_interval"`
	Views        Views    `yaml:"views"`
	LogLevel     string   `yaml:"log_level"`
}

func Defaults() Config {
	return Config{
		PollInterval: Duration(30 * time.Second),
		LogLevel:     "info",
	}
}

// Interval returns the poll interval with the floor applied. Anything
// shorter than 5s just hammers the vendor APIs.
func (c Config) Interval() time.Duration {
	d := time.Duration(c.PollInterval)
	if d < minPollInterval {
		return minPollInterval
	}
	return d
}

func (c Config) ClaudeEnabled() bool { return c.Views.Claude == nil || *c.Views.Claude }
func (c Config) CursorEnabled() bool { return c.Views.Cursor == nil || *c.Views.Cursor }

// Dir returns the configuration directory.
func Dir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "usage-live")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "usage-live")
}

func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// LogDir returns where applog writes its files.
func LogDir() string {
	return filepath.Join(Dir(), "logs")
}

// Load reads the config at path, or defaults when it doesn't exist.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

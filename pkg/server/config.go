package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML server configuration. Absent fields keep
// the current setting, so a partial file only overrides what it names.
type FileConfig struct {
	Addr         string  `yaml:"addr,omitempty"`
	DBPath       string  `yaml:"db_path,omitempty"`
	MetricsAddr  *string `yaml:"metrics_addr,omitempty"` // explicit "" disables the endpoint
	HistoryLimit *int    `yaml:"history_limit,omitempty"`
	MOTD         string  `yaml:"motd,omitempty"`
}

// LoadConfigFile reads a YAML config file and overlays it onto cfg.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI config
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return ApplyConfigYAML(data, cfg)
}

// ApplyConfigYAML parses YAML data and overlays it onto cfg.
func ApplyConfigYAML(data []byte, cfg *Config) error {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}
	if fc.HistoryLimit != nil && *fc.HistoryLimit >= 0 {
		cfg.HistoryLimit = *fc.HistoryLimit
	}
	if fc.MOTD != "" {
		cfg.MOTD = fc.MOTD
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v3"
)

// fileConfig mirrors the keys accepted in a config file. Keys use the
// lower-case form of the environment variable names.
type fileConfig struct {
	DiscordToken   string `toml:"discord_token" yaml:"discord_token"`
	StorageDriver  string `toml:"storage_driver" yaml:"storage_driver"`
	DBPath         string `toml:"db_path" yaml:"db_path"`
	DatabaseURL    string `toml:"database_url" yaml:"database_url"`
	DatabaseName   string `toml:"database_name" yaml:"database_name"`
	CallTimeout    string `toml:"call_timeout" yaml:"call_timeout"`
	SendRatePerSec *int   `toml:"send_rate_per_sec" yaml:"send_rate_per_sec"`
	AuditSchedule  string `toml:"audit_schedule" yaml:"audit_schedule"`
	NATSServers    string `toml:"nats_servers" yaml:"nats_servers"`
	DebugAPIAddr   string `toml:"debug_api_addr" yaml:"debug_api_addr"`
	OTelEnabled    *bool  `toml:"otel_enabled" yaml:"otel_enabled"`
	OTelEndpoint   string `toml:"otel_endpoint" yaml:"otel_endpoint"`
	LogLevel       string `toml:"log_level" yaml:"log_level"`
	LogFormat      string `toml:"log_format" yaml:"log_format"`
	Environment    string `toml:"environment" yaml:"environment"`
}

// applyFile overlays the file at path onto config. A missing file is only an
// error when the path was chosen explicitly.
func applyFile(config *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		return err
	}

	overlay(&config.DiscordToken, fc.DiscordToken)
	overlay(&config.StorageDriver, fc.StorageDriver)
	overlay(&config.DBPath, fc.DBPath)
	overlay(&config.DatabaseURL, fc.DatabaseURL)
	overlay(&config.DatabaseName, fc.DatabaseName)
	overlay(&config.AuditSchedule, fc.AuditSchedule)
	overlay(&config.NATSServers, fc.NATSServers)
	overlay(&config.DebugAPIAddr, fc.DebugAPIAddr)
	overlay(&config.OTelEndpoint, fc.OTelEndpoint)
	overlay(&config.LogLevel, fc.LogLevel)
	overlay(&config.LogFormat, fc.LogFormat)
	overlay(&config.Environment, fc.Environment)

	if fc.SendRatePerSec != nil {
		config.SendRatePerSec = *fc.SendRatePerSec
	}
	if fc.OTelEnabled != nil {
		config.OTelEnabled = *fc.OTelEnabled
	}
	if fc.CallTimeout != "" {
		d, err := time.ParseDuration(fc.CallTimeout)
		if err != nil {
			return fmt.Errorf("invalid call_timeout %q in %s: %w", fc.CallTimeout, path, err)
		}
		config.CallTimeout = d
	}

	config.ConfigFile = path
	return nil
}

// decodeFile picks the decoder from the file extension; anything that is not
// YAML is treated as TOML
func decodeFile(path string, data []byte) (*fileConfig, error) {
	var fc fileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse toml config %s: %w", path, err)
		}
	}

	return &fc, nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

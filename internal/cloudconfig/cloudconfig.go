// Package cloudconfig loads and stores the optional cloud replication
// settings. Settings live at ~/.config/ticlog/config.json with env-var
// overrides; a partially populated configuration is treated identically
// to an absent one.
package cloudconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ticlog/internal/remote"
)

// FileConfig is the on-disk config at ~/.config/ticlog/config.json.
type FileConfig struct {
	Cloud        remote.Config `json:"cloud"`
	SyncInterval string        `json:"sync_interval,omitempty"` // duration string, default "30s"
}

const defaultSyncInterval = 30 * time.Second

// Dir returns the config directory, creating it if necessary.
// TICLOG_CONFIG_DIR overrides the default for tests and sandboxes.
func Dir() (string, error) {
	if v := os.Getenv("TICLOG_CONFIG_DIR"); v != "" {
		if err := os.MkdirAll(v, 0755); err != nil {
			return "", fmt.Errorf("create config dir: %w", err)
		}
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "ticlog")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadFile reads the on-disk config, returning an empty config when the
// file does not exist.
func LoadFile() (*FileConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{}, nil
		}
		return nil, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// SaveFile writes the on-disk config. The file carries the credential,
// so it is written 0600.
func SaveFile(cfg *FileConfig) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0600)
}

// Clear removes the config file.
func Clear() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "config.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// LoadCloud returns the effective cloud configuration.
// Priority per field: env var > config.json. The result may be
// incomplete; callers hand it to remote.Client.Initialize, which treats
// partial configuration as absent.
func LoadCloud() remote.Config {
	cfg, err := LoadFile()
	if err != nil {
		cfg = &FileConfig{}
	}
	out := cfg.Cloud

	if v := os.Getenv("TICLOG_COSMOS_ENDPOINT"); v != "" {
		out.Endpoint = v
	}
	if v := os.Getenv("TICLOG_COSMOS_KEY"); v != "" {
		out.Key = v
	}
	if v := os.Getenv("TICLOG_COSMOS_DATABASE"); v != "" {
		out.Database = v
	}
	if v := os.Getenv("TICLOG_COSMOS_CONTAINER"); v != "" {
		out.Container = v
	}
	return out
}

// SyncInterval returns the periodic background sync interval.
// Priority: TICLOG_SYNC_INTERVAL env > config.json > 30s.
func SyncInterval() time.Duration {
	if v := os.Getenv("TICLOG_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	cfg, err := LoadFile()
	if err == nil && cfg.SyncInterval != "" {
		if d, err := time.ParseDuration(cfg.SyncInterval); err == nil && d > 0 {
			return d
		}
	}
	return defaultSyncInterval
}

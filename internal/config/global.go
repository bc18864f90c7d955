package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/refmerge/config.yml.
type GlobalConfig struct {
	DBPath   string   `yaml:"db_path,omitempty"` // Session database location
	Defaults *Options `yaml:"defaults,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "refmerge"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// DBFile is the default session database file name.
	DBFile = "sessions.db"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigDirPath returns the refmerge directory under the user config home.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/refmerge.
func GlobalConfigDirPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir)
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	dir := GlobalConfigDirPath()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	// Keys missing under defaults keep their built-in values.
	defaults := DefaultOptions()
	cfg := GlobalConfig{Defaults: &defaults}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.DBPath != "" {
		cfg.DBPath = ExpandTilde(cfg.DBPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// SaveGlobalConfig writes cfg to the global config path, creating the directory.
func SaveGlobalConfig(cfg *GlobalConfig) error {
	path := GlobalConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding global config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing global config: %w", err)
	}

	globalConfigCache = cfg
	return nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// EffectiveOptions returns the default options overlaid with the global config
// defaults and then REFMERGE_* environment variables.
func EffectiveOptions() (Options, error) {
	opts := DefaultOptions()

	cfg, err := LoadGlobalConfig()
	if err != nil {
		return opts, err
	}
	if cfg.Defaults != nil {
		opts = *cfg.Defaults
	}

	if err := opts.ApplyEnv(); err != nil {
		return opts, err
	}
	return opts, nil
}

// DBPath returns the session database path: REFMERGE_DB, then db_path from the
// global config, then sessions.db in the config directory.
func DBPath() string {
	if p := os.Getenv("REFMERGE_DB"); p != "" {
		return ExpandTilde(p)
	}
	if cfg, err := LoadGlobalConfig(); err == nil && cfg.DBPath != "" {
		return cfg.DBPath
	}
	dir := GlobalConfigDirPath()
	if dir == "" {
		return DBFile
	}
	return filepath.Join(dir, DBFile)
}

// ExpandTilde expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

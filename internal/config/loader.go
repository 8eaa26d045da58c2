package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

// ErrCorruptConfig marks a configuration file that exists but cannot be
// parsed. Load still returns a usable configuration alongside it.
var ErrCorruptConfig = errors.New("corrupt config file")

const (
	appName      = "leocli"
	fileName     = "leocli.yaml"
	systemPath   = "/etc/leocli/leocli.yaml"
	envConfigVar = "LEO_CONFIG"
)

// UserPath returns the per-user configuration file: $LEO_CONFIG when set,
// otherwise leocli/leocli.yaml under the user config directory.
func UserPath() string {
	if p := os.Getenv(envConfigVar); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", fileName)
	}
	return filepath.Join(dir, appName, fileName)
}

// SearchPaths returns the candidate configuration files in priority order.
func SearchPaths() []string {
	return []string{UserPath(), systemPath}
}

// DefaultCacheDir returns leocli under the user cache directory.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appName)
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
//
// With a non-empty path only that file is considered; otherwise the first
// existing file of SearchPaths is used. A missing file is not an error:
// configuration then comes from ENV + defaults. A file that fails to parse
// yields the ENV + defaults configuration together with an error wrapping
// ErrCorruptConfig, so callers can warn and carry on.
func Load(path string) (*Config, error) {
	if path == "" {
		path = locate(SearchPaths())
	} else if _, err := os.Stat(path); err != nil {
		path = ""
	}

	var loadErr error
	cfg := seeded()
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			loadErr = fmt.Errorf("config: read %s: %w: %w", path, ErrCorruptConfig, err)
			cfg = seeded()
			path = ""
		}
	}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}
	cfg.Path = path

	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return cfg, loadErr
}

// seeded returns a Config holding the defaults that env-default tags
// cannot express.
func seeded() *Config {
	return &Config{UseColor: true, UseCache: true}
}

func locate(paths []string) string {
	for _, p := range paths {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// ABOUTME: Configuration loading for the sessionctl CLI
// ABOUTME: Loads TOML config from XDG path with environment variable expansion

package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Daemon DaemonConfig `toml:"daemon"`
}

type DaemonConfig struct {
	URL       string `toml:"url"`
	TokenFile string `toml:"token_file"`
}

// configPath returns the sessionctl config path.
// Priority: SESSIONCTL_CONFIG env var > XDG_CONFIG_HOME/sessionctl/config.toml > ~/.config/sessionctl/config.toml
func configPath() string {
	if envPath := os.Getenv("SESSIONCTL_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "sessionctl.toml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "sessionctl", "config.toml")
}

// loadConfig reads the TOML config, falling back to defaults when the file
// does not exist. SESSIOND_URL overrides the daemon URL either way.
func loadConfig() (*Config, error) {
	cfg := &Config{
		Daemon: DaemonConfig{
			URL:       "http://127.0.0.1:8484",
			TokenFile: defaultTokenPath(),
		},
	}

	path := configPath()
	data, err := os.ReadFile(path)
	if err == nil {
		expanded := expandEnvVars(string(data))
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if envURL := os.Getenv("SESSIOND_URL"); envURL != "" {
		cfg.Daemon.URL = envURL
	}
	if cfg.Daemon.TokenFile == "" {
		cfg.Daemon.TokenFile = defaultTokenPath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultTokenPath() string {
	return filepath.Join(filepath.Dir(configPath()), "token")
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that required config fields are present and valid.
func (c *Config) Validate() error {
	if c.Daemon.URL == "" {
		return fmt.Errorf("daemon.url is required")
	}
	u, err := url.Parse(c.Daemon.URL)
	if err != nil {
		return fmt.Errorf("daemon.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("daemon.url must use http or https scheme")
	}
	return nil
}

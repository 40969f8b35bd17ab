// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8484"

database:
  path: "./test.db"

backend:
  directory_url: "https://directory.example.com/api"
  default_base_url: "https://app.example.com/api"
  request_timeout: "45s"

auth:
  jwt_secret: "local-test-secret"
  password_hash: "$2a$10$abcdefghijklmnopqrstuv"
  token_ttl: "6h"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:8484" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:8484")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}

	if cfg.Backend.DirectoryURL != "https://directory.example.com/api" {
		t.Errorf("Backend.DirectoryURL = %q, want directory URL", cfg.Backend.DirectoryURL)
	}
	if cfg.Backend.DefaultBaseURL != "https://app.example.com/api" {
		t.Errorf("Backend.DefaultBaseURL = %q, want default base URL", cfg.Backend.DefaultBaseURL)
	}
	if cfg.Backend.RequestTimeout != 45*time.Second {
		t.Errorf("Backend.RequestTimeout = %v, want %v", cfg.Backend.RequestTimeout, 45*time.Second)
	}

	if cfg.Auth.JWTSecret != "local-test-secret" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "local-test-secret")
	}
	if cfg.Auth.TokenTTL != 6*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want %v", cfg.Auth.TokenTTL, 6*time.Hour)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}

	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8484"
database:
  path: "./test.db"
backend:
  directory_url: "https://directory.example.com/api"
  default_base_url: "https://app.example.com/api"
auth:
  jwt_secret: "local-test-secret"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.RequestTimeout != 30*time.Second {
		t.Errorf("Backend.RequestTimeout default = %v, want %v", cfg.Backend.RequestTimeout, 30*time.Second)
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Errorf("Auth.TokenTTL default = %v, want %v", cfg.Auth.TokenTTL, 12*time.Hour)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "secret-from-env")
	t.Setenv("TEST_DIRECTORY_URL", "https://dir-from-env.example.com/api")

	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8484"
database:
  path: "./test.db"
backend:
  directory_url: "${TEST_DIRECTORY_URL}"
  default_base_url: "https://app.example.com/api"
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.JWTSecret != "secret-from-env" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "secret-from-env")
	}
	if cfg.Backend.DirectoryURL != "https://dir-from-env.example.com/api" {
		t.Errorf("Backend.DirectoryURL = %q, want env value", cfg.Backend.DirectoryURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr "missing colon"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8484"
database:
  path: "./test.db"
backend:
  directory_url: "https://directory.example.com/api"
  default_base_url: "https://app.example.com/api"
  request_timeout: "not-a-duration"
auth:
  jwt_secret: "local-test-secret"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid duration, got nil")
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErrSubstr string
	}{
		{
			name: "missing http_addr",
			configContent: `
database:
  path: "./test.db"
backend:
  directory_url: "https://directory.example.com/api"
  default_base_url: "https://app.example.com/api"
auth:
  jwt_secret: "local-test-secret"
`,
			wantErrSubstr: "server.http_addr is required",
		},
		{
			name: "missing database path",
			configContent: `
server:
  http_addr: "127.0.0.1:8484"
backend:
  directory_url: "https://directory.example.com/api"
  default_base_url: "https://app.example.com/api"
auth:
  jwt_secret: "local-test-secret"
`,
			wantErrSubstr: "database.path is required",
		},
		{
			name: "missing directory_url",
			configContent: `
server:
  http_addr: "127.0.0.1:8484"
database:
  path: "./test.db"
backend:
  default_base_url: "https://app.example.com/api"
auth:
  jwt_secret: "local-test-secret"
`,
			wantErrSubstr: "backend.directory_url is required",
		},
		{
			name: "missing default_base_url",
			configContent: `
server:
  http_addr: "127.0.0.1:8484"
database:
  path: "./test.db"
backend:
  directory_url: "https://directory.example.com/api"
auth:
  jwt_secret: "local-test-secret"
`,
			wantErrSubstr: "backend.default_base_url is required",
		},
		{
			name: "missing jwt_secret",
			configContent: `
server:
  http_addr: "127.0.0.1:8484"
database:
  path: "./test.db"
backend:
  directory_url: "https://directory.example.com/api"
  default_base_url: "https://app.example.com/api"
`,
			wantErrSubstr: "auth.jwt_secret is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.configContent)

			_, err := Load(configPath)
			if err == nil {
				t.Errorf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single env var",
			input:    "${FOO}",
			expected: "bar",
		},
		{
			name:     "env var with surrounding text",
			input:    "prefix-${FOO}-suffix",
			expected: "prefix-bar-suffix",
		},
		{
			name:     "multiple env vars",
			input:    "${FOO}/${BAZ}",
			expected: "bar/qux",
		},
		{
			name:     "no env vars",
			input:    "no-vars-here",
			expected: "no-vars-here",
		},
		{
			name:     "unset env var",
			input:    "${UNSET_VAR}",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidate_TailscaleConfig(t *testing.T) {
	base := func() Config {
		return Config{
			Database: DatabaseConfig{Path: "./test.db"},
			Backend: BackendConfig{
				DirectoryURL:   "https://directory.example.com/api",
				DefaultBaseURL: "https://app.example.com/api",
			},
			Auth: AuthConfig{JWTSecret: "local-test-secret"},
		}
	}

	tests := []struct {
		name          string
		mutate        func(*Config)
		wantErr       bool
		wantErrSubstr string
	}{
		{
			name: "tailscale enabled allows empty http_addr",
			mutate: func(c *Config) {
				c.Tailscale = TailscaleConfig{Enabled: true, Hostname: "sessiond"}
			},
			wantErr: false,
		},
		{
			name: "tailscale enabled requires hostname",
			mutate: func(c *Config) {
				c.Tailscale = TailscaleConfig{Enabled: true}
			},
			wantErr:       true,
			wantErrSubstr: "tailscale.hostname is required",
		},
		{
			name: "tailscale disabled requires http_addr",
			mutate: func(c *Config) {
				c.Tailscale = TailscaleConfig{Enabled: false, Hostname: "sessiond"}
			},
			wantErr:       true,
			wantErrSubstr: "server.http_addr is required",
		},
		{
			name: "tailscale with all options set",
			mutate: func(c *Config) {
				c.Tailscale = TailscaleConfig{
					Enabled:   true,
					Hostname:  "sessiond",
					AuthKey:   "tskey-auth-xxx",
					StateDir:  "/tmp/ts-state",
					Ephemeral: true,
				}
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErrSubstr)
					return
				}
				if !strings.Contains(err.Error(), tt.wantErrSubstr) {
					t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

// Package config handles configuration loading for sessiond.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SESSIOND_CONFIG environment variable
//  2. ./sessiond.yaml (current directory)
//  3. ~/.config/sessiond/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${SESSIOND_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	backend:
//	  request_timeout: "30s"
//	auth:
//	  token_ttl: "12h"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "127.0.0.1:8484"  # Local API for the dashboard shell and CLI
//
// Database:
//
//	database:
//	  path: "~/.local/share/sessiond/session.db"
//
// Backend endpoints:
//
//	backend:
//	  directory_url: "https://directory.example.com/api"
//	  default_base_url: "https://app.example.com/api"
//	  request_timeout: "30s"
//
// Authentication for the local API:
//
//	auth:
//	  jwt_secret: "${SESSIOND_JWT_SECRET}"    # Required
//	  password_hash: "${SESSIOND_PASSWORD}"   # bcrypt hash, set via sessiond init
//	  token_ttl: "12h"
//
// Tailscale:
//
//	tailscale:
//	  enabled: false
//	  hostname: "sessiond"
//	  auth_key: "${TS_AUTHKEY}"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("/etc/sessiond/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

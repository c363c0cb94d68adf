package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PietroNarcisi/NostressAI/internal/config"
)

// envPrefix marks variables read by the CLI.
const envPrefix = "NOSTRESS_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath  string // NOSTRESS_CONFIG: config file name or path
	ContentDir  string // NOSTRESS_CONTENT_DIR: flat-file content tree
	StoreDriver string // NOSTRESS_STORE_DRIVER: file or sqlite
	DSN         string // NOSTRESS_DSN: SQLite database path
	Addr        string // NOSTRESS_ADDR: HTTP listen address
	BaseURL     string // NOSTRESS_BASE_URL: public site URL for the sitemap
	LogLevel    string // NOSTRESS_LOG_LEVEL: debug, info, warn, error
	LogFormat   string // NOSTRESS_LOG_FORMAT: console or json
	Workers     int    // NOSTRESS_WORKERS: parallel resolution workers
	Watch       *bool  // NOSTRESS_WATCH: reload content on change (nil = unset)
}

// knownEnvVars lists valid NOSTRESS_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"NOSTRESS_CONFIG":       true,
	"NOSTRESS_CONTENT_DIR":  true,
	"NOSTRESS_STORE_DRIVER": true,
	"NOSTRESS_DSN":          true,
	"NOSTRESS_ADDR":         true,
	"NOSTRESS_BASE_URL":     true,
	"NOSTRESS_LOG_LEVEL":    true,
	"NOSTRESS_LOG_FORMAT":   true,
	"NOSTRESS_WORKERS":      true,
	"NOSTRESS_WATCH":        true,
}

// lookupEnv builds a lookup over KEY=VALUE pairs. Later pairs win.
func lookupEnv(environ []string) map[string]string {
	vars := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(name, envPrefix) {
			vars[name] = value
		}
	}
	return vars
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and booleans are ignored.
func loadEnvConfig(environ []string) *envConfig {
	vars := lookupEnv(environ)
	cfg := &envConfig{
		ConfigPath:  vars["NOSTRESS_CONFIG"],
		ContentDir:  vars["NOSTRESS_CONTENT_DIR"],
		StoreDriver: vars["NOSTRESS_STORE_DRIVER"],
		DSN:         vars["NOSTRESS_DSN"],
		Addr:        vars["NOSTRESS_ADDR"],
		BaseURL:     vars["NOSTRESS_BASE_URL"],
		LogLevel:    vars["NOSTRESS_LOG_LEVEL"],
		LogFormat:   vars["NOSTRESS_LOG_FORMAT"],
	}

	if workers := vars["NOSTRESS_WORKERS"]; workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	if watch := vars["NOSTRESS_WATCH"]; watch != "" {
		if b, err := strconv.ParseBool(watch); err == nil {
			cfg.Watch = &b
		}
	}

	return cfg
}

// warnUnknownEnvVars prints warnings for unrecognized NOSTRESS_* variables.
// Helps catch typos like NOSTRESS_CONTENTDIR.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for name := range lookupEnv(environ) {
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overlays set environment values onto cfg.
// Environment wins over the config file; CLI flags are applied afterwards.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.ContentDir != "" {
		cfg.Content.Dir = env.ContentDir
	}
	if env.StoreDriver != "" {
		cfg.Store.Driver = env.StoreDriver
	}
	if env.DSN != "" {
		cfg.Store.DSN = env.DSN
	}
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.BaseURL != "" {
		cfg.Server.BaseURL = env.BaseURL
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
	if env.Watch != nil {
		cfg.Server.Watch = *env.Watch
	}
}

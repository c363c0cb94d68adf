package main

// Notes:
// - loadEnvConfig: we test every NOSTRESS_* variable. Malformed workers and
//   watch values are ignored, not errors.
// - warnUnknownEnvVars: we test typo detection and that known vars don't warn.
// - applyEnvConfig: we test that set values override the config file and
//   unset values leave it alone.
// - Environment is injected as a slice, so tests stay parallel.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/PietroNarcisi/NostressAI/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("all variables", func(t *testing.T) {
		t.Parallel()

		cfg := loadEnvConfig([]string{
			"NOSTRESS_CONFIG=site",
			"NOSTRESS_CONTENT_DIR=/srv/content",
			"NOSTRESS_STORE_DRIVER=sqlite",
			"NOSTRESS_DSN=/srv/site.db",
			"NOSTRESS_ADDR=:9000",
			"NOSTRESS_BASE_URL=https://example.com",
			"NOSTRESS_LOG_LEVEL=debug",
			"NOSTRESS_LOG_FORMAT=json",
			"NOSTRESS_WORKERS=4",
			"NOSTRESS_WATCH=true",
			"HOME=/root",
		})

		watch := true
		want := &envConfig{
			ConfigPath:  "site",
			ContentDir:  "/srv/content",
			StoreDriver: "sqlite",
			DSN:         "/srv/site.db",
			Addr:        ":9000",
			BaseURL:     "https://example.com",
			LogLevel:    "debug",
			LogFormat:   "json",
			Workers:     4,
			Watch:       &watch,
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("loadEnvConfig() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("malformed values ignored", func(t *testing.T) {
		t.Parallel()

		cfg := loadEnvConfig([]string{"NOSTRESS_WORKERS=-2", "NOSTRESS_WATCH=maybe"})
		if cfg.Workers != 0 {
			t.Errorf("Workers = %d, want 0", cfg.Workers)
		}
		if cfg.Watch != nil {
			t.Errorf("Watch = %v, want nil", *cfg.Watch)
		}
	})

	t.Run("value containing equals sign", func(t *testing.T) {
		t.Parallel()

		cfg := loadEnvConfig([]string{"NOSTRESS_DSN=file.db?mode=ro"})
		if cfg.DSN != "file.db?mode=ro" {
			t.Errorf("DSN = %q, want file.db?mode=ro", cfg.DSN)
		}
	})
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf, []string{
		"NOSTRESS_CONTENT_DIR=content",
		"NOSTRESS_CONTNET_DIR=typo",
		"OTHER_VAR=1",
	})

	out := buf.String()
	if !strings.Contains(out, "NOSTRESS_CONTNET_DIR") {
		t.Errorf("want warning for NOSTRESS_CONTNET_DIR, got %q", out)
	}
	if strings.Contains(out, "NOSTRESS_CONTENT_DIR") || strings.Contains(out, "OTHER_VAR") {
		t.Errorf("unexpected warning in %q", out)
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Environment overrides file values
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("set values override", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Content.Dir = "from-file"
		watch := true
		applyEnvConfig(&envConfig{ContentDir: "from-env", Addr: ":9000", Workers: 3, Watch: &watch}, cfg)

		if cfg.Content.Dir != "from-env" {
			t.Errorf("Content.Dir = %q, want from-env", cfg.Content.Dir)
		}
		if cfg.Server.Addr != ":9000" {
			t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
		}
		if cfg.Workers != 3 {
			t.Errorf("Workers = %d, want 3", cfg.Workers)
		}
		if !cfg.Server.Watch {
			t.Error("Server.Watch = false, want true")
		}
	})

	t.Run("unset values keep file", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Content.Dir = "from-file"
		cfg.Server.Watch = true
		want := *cfg

		applyEnvConfig(&envConfig{}, cfg)

		if diff := cmp.Diff(want, *cfg); diff != "" {
			t.Errorf("config changed (-want +got):\n%s", diff)
		}
	})
}

//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults over a minimal file", func(t *testing.T) {
		path := writeConfig(t, `
database:
  url: postgres://localhost/discovery
redis:
  url: localhost:6379
`)
		cfg, err := LoadConfig(path, false)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Discovery.ParallelismWindow != 5 {
			t.Errorf("parallelism_window default = %d, want 5", cfg.Discovery.ParallelismWindow)
		}
		if cfg.Discovery.ExpectedYield != 25 {
			t.Errorf("expected_yield default = %d, want 25", cfg.Discovery.ExpectedYield)
		}
		if cfg.Discovery.MaxStaleInvocations != 3 {
			t.Errorf("max_stale_invocations default = %d, want 3", cfg.Discovery.MaxStaleInvocations)
		}
		if cfg.Discovery.SearchTimeout.Std() != 20*time.Second {
			t.Errorf("search_timeout default = %v", cfg.Discovery.SearchTimeout)
		}
		if cfg.Web.Port != 8080 {
			t.Errorf("web.port default = %d, want 8080", cfg.Web.Port)
		}
		if cfg.Worker.Workers != 4 {
			t.Errorf("worker.workers default = %d, want 4", cfg.Worker.Workers)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("log defaults = %s/%s", cfg.Log.Level, cfg.Log.Format)
		}
		if cfg.Runtime.Dev {
			t.Error("dev flag leaked into a non-dev load")
		}
	})

	t.Run("explicit values win over defaults", func(t *testing.T) {
		path := writeConfig(t, `
database:
  url: postgres://localhost/discovery
  max_conns: 25
redis:
  url: localhost:6379
discovery:
  parallelism_window: 8
  search_timeout: 5s
providers:
  tiktok:
    api_key: tk-key
    requests_per_min: 120
web:
  port: 9090
`)
		cfg, err := LoadConfig(path, true)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Discovery.ParallelismWindow != 8 {
			t.Errorf("parallelism_window = %d, want 8", cfg.Discovery.ParallelismWindow)
		}
		if cfg.Discovery.SearchTimeout.Std() != 5*time.Second {
			t.Errorf("search_timeout = %v, want 5s", cfg.Discovery.SearchTimeout)
		}
		if cfg.Providers.TikTok.APIKey != "tk-key" || cfg.Providers.TikTok.RequestsPerMin != 120 {
			t.Errorf("tiktok provider = %+v", cfg.Providers.TikTok)
		}
		if cfg.Web.Port != 9090 {
			t.Errorf("web.port = %d, want 9090", cfg.Web.Port)
		}
		if !cfg.Runtime.Dev {
			t.Error("dev flag not carried through")
		}
	})

	t.Run("missing database url is rejected", func(t *testing.T) {
		path := writeConfig(t, "redis:\n  url: localhost:6379\n")
		if _, err := LoadConfig(path, false); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("missing redis url is rejected", func(t *testing.T) {
		path := writeConfig(t, "database:\n  url: postgres://localhost/x\n")
		if _, err := LoadConfig(path, false); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
			t.Fatal("expected an error")
		}
	})
}

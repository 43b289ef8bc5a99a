package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8000 {
		t.Fatalf("port = %d, want 8000", c.Server.Port)
	}
	if c.Cache.Backend != "memory" {
		t.Fatalf("backend = %q, want memory", c.Cache.Backend)
	}
	// Bare hosts only; the providers own their request paths.
	if c.Providers.AlphaVantage.BaseURL != "https://www.alphavantage.co" {
		t.Fatalf("alphavantage base url = %q", c.Providers.AlphaVantage.BaseURL)
	}
	if strings.Contains(c.Providers.AlphaVantage.BaseURL, "/query") {
		t.Fatalf("alphavantage base url must not carry the request path")
	}
}

func TestLoadRejectsBadBackend(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\ncache:\n  backend: bogus\n"))
	if err == nil {
		t.Fatalf("expected validation error for unknown backend")
	}
}

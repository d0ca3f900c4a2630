package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Listen != "[::]:8080" {
		t.Errorf("default listen = %q", cfg.Listen)
	}
	if cfg.ConsentTimeout.Std() != 30*time.Second {
		t.Errorf("default consent timeout = %v", cfg.ConsentTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
node: 10.0.0.7
consent_timeout: 5s
audit_log: /var/log/trace2e/audit.jsonl
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Node != "10.0.0.7" {
		t.Errorf("node = %q", cfg.Node)
	}
	if cfg.ConsentTimeout.Std() != 5*time.Second {
		t.Errorf("consent timeout = %v", cfg.ConsentTimeout)
	}
	// Untouched fields keep their defaults.
	if cfg.Listen != "[::]:8080" || cfg.M2MPort != 8080 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg != Default() {
		t.Errorf("empty path must return defaults")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty node", func(c *Config) { c.Node = "" }},
		{"empty listen", func(c *Config) { c.Listen = "" }},
		{"port too small", func(c *Config) { c.M2MPort = 0 }},
		{"port too large", func(c *Config) { c.M2MPort = 70000 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("invalid config accepted")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Errorf("missing file accepted")
	}
}

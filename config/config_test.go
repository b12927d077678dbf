package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "sqlite" || cfg.KVDriver != "file" || cfg.BackendTimeout != 10*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasublog.yaml")
	yaml := "backend: local\nkv_driver: memory\nbackend_timeout: 3s\nsite_title: From File\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("SITE_TITLE", "From Env")
	t.Setenv("LOAD_ATTEMPTS", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "local" || cfg.KVDriver != "memory" || cfg.BackendTimeout != 3*time.Second {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.SiteTitle != "From Env" || cfg.LoadAttempts != 4 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadDevFallbacks(t *testing.T) {
	t.Setenv("ENV", DevEnv)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("ADDRESS_LISTEN", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AddressListen != ":8080" || cfg.JWTSecret == "" || cfg.AdminPassword == "" {
		t.Errorf("dev fallbacks missing: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.JWTSecret = "s"
		c.AdminPassword = "p"
		return c
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no secret", func(c *Config) { c.JWTSecret = "" }},
		{"no password", func(c *Config) { c.AdminPassword = "" }},
		{"backend", func(c *Config) { c.Backend = "firestore" }},
		{"kv", func(c *Config) { c.KVDriver = "cookie" }},
		{"markdown", func(c *Config) { c.Markdown = "marked" }},
		{"timeout", func(c *Config) { c.BackendTimeout = 0 }},
		{"attempts", func(c *Config) { c.LoadAttempts = 0 }},
	}
	for _, tt := range tests {
		c := valid()
		tt.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

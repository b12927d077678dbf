package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"tasublog/domain"
)

const (
	DevEnv = "dev"
	ProEnv = "pro"
)

type Config struct {
	Env           string `koanf:"env"`
	AddressListen string `koanf:"address_listen"`
	WhitelistHost string `koanf:"whitelist_host"`
	CertCacheDir  string `koanf:"cert_cache_dir"`
	AssetsDir     string `koanf:"assets_dir"`

	JWTSecret     string `koanf:"jwt_secret"`
	AdminPassword string `koanf:"admin_password"`

	// Backend is the post document store: "sqlite" or "local".
	Backend        string        `koanf:"backend"`
	DBURL          string        `koanf:"db_url"`
	BackendTimeout time.Duration `koanf:"backend_timeout"`
	LoadAttempts   int           `koanf:"load_attempts"`

	// KVDriver is the local key-value scope: "file", "redis" or "memory".
	KVDriver      string `koanf:"kv_driver"`
	KVPath        string `koanf:"kv_path"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	Markdown string `koanf:"markdown"`

	SiteTitle       string `koanf:"site_title"`
	SiteDescription string `koanf:"site_description"`
	SiteURL         string `koanf:"site_url"`
}

func Default() *Config {
	return &Config{
		Env:             ProEnv,
		CertCacheDir:    "/var/www/.cache",
		AssetsDir:       "assets",
		Backend:         "sqlite",
		DBURL:           "./tasublog.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		BackendTimeout:  10 * time.Second,
		LoadAttempts:    2,
		KVDriver:        "file",
		KVPath:          "./local-storage.json",
		RedisAddr:       "localhost:6379",
		Markdown:        "gomarkdown",
		SiteTitle:       "Tasu Blog",
		SiteDescription: "Notes on design, travel and technology.",
		SiteURL:         "http://localhost:8080",
	}
}

// Load starts from Default, overlays the YAML file at path when it exists,
// then environment variables (ADDRESS_LISTEN -> address_listen, ...).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.Env == DevEnv {
		if cfg.AddressListen == "" {
			cfg.AddressListen = ":8080"
		}
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "unsecure"
		}
		if cfg.AdminPassword == "" {
			cfg.AdminPassword = "admin"
		}
	}
	return cfg, nil
}

var (
	validBackends  = map[string]bool{"sqlite": true, "local": true}
	validKVDrivers = map[string]bool{"file": true, "redis": true, "memory": true}
	validMarkdown  = map[string]bool{"gomarkdown": true, "goldmark": true, "plain": true}
)

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("no secret defined: set JWT_SECRET")
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("no admin password defined: set ADMIN_PASSWORD")
	}
	if !validBackends[c.Backend] {
		return fmt.Errorf("invalid backend %q: must be sqlite or local", c.Backend)
	}
	if !validKVDrivers[c.KVDriver] {
		return fmt.Errorf("invalid kv_driver %q: must be file, redis or memory", c.KVDriver)
	}
	if !validMarkdown[c.Markdown] {
		return fmt.Errorf("invalid markdown %q: must be gomarkdown, goldmark or plain", c.Markdown)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("backend_timeout must be positive")
	}
	if c.LoadAttempts < 1 {
		return fmt.Errorf("load_attempts must be at least 1")
	}
	return nil
}

func (c *Config) Site() domain.Site {
	return domain.Site{
		Title:       c.SiteTitle,
		Description: c.SiteDescription,
		URL:         strings.TrimRight(c.SiteURL, "/"),
	}
}

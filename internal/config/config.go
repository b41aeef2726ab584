package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          string    `yaml:"port"`
	Database      Database  `yaml:"database"`
	SessionSecret string    `yaml:"session_secret"`
	AdminToken    string    `yaml:"admin_token"`
	Narrative     Narrative `yaml:"narrative"`
	CatalogPath   string    `yaml:"catalog_path"`
	// StrictCompletion requires every question, not just every dimension,
	// to be answered before a result is computed.
	StrictCompletion bool     `yaml:"strict_completion"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	LogLevel         string   `yaml:"log_level"`
	Development      bool     `yaml:"development"`
}

type Database struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

type Narrative struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		Port: "8080",
		Database: Database{
			Driver: "sqlite",
			URL:    "movietype.db",
		},
		Narrative: Narrative{
			Provider: "offline",
			Timeout:  8 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load layers defaults, the optional YAML file at path and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.URL)
	str("SESSION_SECRET", &c.SessionSecret)
	str("ADMIN_TOKEN", &c.AdminToken)
	str("GEMINI_API_KEY", &c.Narrative.APIKey)
	str("NARRATIVE_PROVIDER", &c.Narrative.Provider)
	str("NARRATIVE_MODEL", &c.Narrative.Model)
	str("CATALOG_PATH", &c.CatalogPath)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("NARRATIVE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("NARRATIVE_TIMEOUT: %w", err)
		}
		c.Narrative.Timeout = d
	}
	if v, ok := lookup("STRICT_COMPLETION"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STRICT_COMPLETION: %w", err)
		}
		c.StrictCompletion = b
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "pgx":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Narrative.Provider {
	case "offline", "genai":
	default:
		return fmt.Errorf("unknown narrative provider %q", c.Narrative.Provider)
	}
	if c.Narrative.Timeout <= 0 {
		return errors.New("narrative timeout must be positive")
	}
	if c.Port == "" {
		return errors.New("port is required")
	}
	return nil
}

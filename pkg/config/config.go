// Package config loads waf-console configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config represents the application configuration.
type Config struct {
	Stream struct {
		Endpoint  string `yaml:"endpoint"`
		AuthToken string `yaml:"authToken"`
	} `yaml:"stream"`

	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Window struct {
		MaxEvents   int `yaml:"maxEvents"`
		MaxAgeHours int `yaml:"maxAgeHours"`
	} `yaml:"window"`

	Dashboard struct {
		Enabled        bool `yaml:"enabled"`
		RefreshSeconds int  `yaml:"refreshSeconds"`
	} `yaml:"dashboard"`
}

// Load reads configuration from a YAML file, then applies environment
// overrides. A missing file is not an error; defaults plus environment
// apply. A .env file in the working directory is honored when present.
func Load(path string) (*Config, error) {
	// Not an error if absent
	godotenv.Load()

	cfg := &Config{}
	setDefaults(cfg)

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read configuration file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse configuration: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Window.MaxEvents = 5000
	cfg.Window.MaxAgeHours = 24
	cfg.Dashboard.Enabled = true
	cfg.Dashboard.RefreshSeconds = 5
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WAF_CONSOLE_ENDPOINT"); v != "" {
		cfg.Stream.Endpoint = v
	}
	if v := os.Getenv("WAF_CONSOLE_TOKEN"); v != "" {
		cfg.Stream.AuthToken = v
	}
	if v := os.Getenv("WAF_CONSOLE_REDIS"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("WAF_CONSOLE_DATABASE"); v != "" {
		cfg.Database.URL = v
	}
}

func validate(cfg *Config) error {
	if cfg.Stream.Endpoint == "" {
		return fmt.Errorf("stream endpoint is required (config stream.endpoint or WAF_CONSOLE_ENDPOINT)")
	}
	if cfg.Window.MaxEvents <= 0 {
		return fmt.Errorf("window.maxEvents must be positive")
	}
	if cfg.Window.MaxAgeHours <= 0 {
		return fmt.Errorf("window.maxAgeHours must be positive")
	}
	if cfg.Dashboard.RefreshSeconds <= 0 {
		return fmt.Errorf("dashboard.refreshSeconds must be positive")
	}
	return nil
}

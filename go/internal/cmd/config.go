package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the bridge's yaml configuration. Environment variables override
// the file for secrets (WLSYSTEM_TOKEN, ADMIN_TOKEN, DB_*).
type Config struct {
	WLSystem struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"wl_system"`

	Feed struct {
		URL string `yaml:"url"`
	} `yaml:"feed"`

	Server struct {
		Port       string `yaml:"port"`
		AdminToken string `yaml:"admin_token"`
	} `yaml:"server"`

	Relay struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"relay"`

	Scheduler struct {
		Enabled  bool   `yaml:"enabled"`
		Interval string `yaml:"interval"`
	} `yaml:"scheduler"`
}

func loadConfig(path string) (*Config, error) {
	config := &Config{}
	config.Scheduler.Interval = "@every 2m"

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Env overrides for secrets and deploy-time settings
	if v := os.Getenv("WLSYSTEM_BASE_URL"); v != "" {
		config.WLSystem.BaseURL = v
	}
	if v := os.Getenv("WLSYSTEM_TOKEN"); v != "" {
		config.WLSystem.Token = v
	}
	if v := os.Getenv("FEED_URL"); v != "" {
		config.Feed.URL = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		config.Server.AdminToken = v
	}
	config.Server.Port = getEnv("PORT", defaultString(config.Server.Port, "8080"))

	return config, nil
}

func defaultString(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

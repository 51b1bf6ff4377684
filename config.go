package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds deployment settings loadable from a YAML file. Env vars
// PULSE_COMPANY_NAME and PULSE_COMPANY_EMAIL override the file.
type Config struct {
	CompanyName     string `yaml:"company_name"`
	CompanyEmail    string `yaml:"company_email"`
	UploadDir       string `yaml:"upload_dir"`
	SessionTTLHours int    `yaml:"session_ttl_hours"`
}

func defaultConfig() Config {
	return Config{
		CompanyName:     "Your Company",
		CompanyEmail:    "admin@example.com",
		UploadDir:       "uploads",
		SessionTTLHours: 24,
	}
}

// loadConfig reads the YAML config at path. A missing file is fine;
// defaults apply.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("PULSE_COMPANY_NAME"); v != "" {
		cfg.CompanyName = v
	}
	if v := os.Getenv("PULSE_COMPANY_EMAIL"); v != "" {
		cfg.CompanyEmail = v
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.SessionTTLHours <= 0 {
		cfg.SessionTTLHours = 24
	}
	return cfg, nil
}

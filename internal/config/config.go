package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json|console
	} `yaml:"log"`
	Marketplace struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		Collection string `yaml:"collection"`
		PageSize   int    `yaml:"page_size"`
	} `yaml:"marketplace"`
	Publisher struct {
		APIURL      string `yaml:"api_url"`
		UploadURL   string `yaml:"upload_url"`
		BearerToken string `yaml:"bearer_token"`
		DryRun      bool   `yaml:"dry_run"`
	} `yaml:"publisher"`
	Render struct {
		BaseURL string `yaml:"base_url"` // empty disables card rendering
	} `yaml:"render"`
	Checkpoint struct {
		Path string `yaml:"path"`
	} `yaml:"checkpoint"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // empty disables history recording
	} `yaml:"database"`
	Schedule struct {
		PollCron string `yaml:"poll_cron"`
	} `yaml:"schedule"`
	Pipeline struct {
		BatchCap      int `yaml:"batch_cap"`
		PaceSeconds   int `yaml:"pace_seconds"`
		RetryAttempts int `yaml:"retry_attempts"`
		RetryBaseMs   int `yaml:"retry_base_ms"`
	} `yaml:"pipeline"`
	Alert struct {
		ThresholdHours int `yaml:"threshold_hours"`
	} `yaml:"alert"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MARKETPLACE_BASE_URL"); v != "" {
		cfg.Marketplace.BaseURL = v
	}
	if v := os.Getenv("MARKETPLACE_API_KEY"); v != "" {
		cfg.Marketplace.APIKey = v
	}
	if v := os.Getenv("MARKETPLACE_COLLECTION"); v != "" {
		cfg.Marketplace.Collection = v
	}
	if v := os.Getenv("PUBLISHER_BEARER_TOKEN"); v != "" {
		cfg.Publisher.BearerToken = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("POLL_CRON"); v != "" {
		cfg.Schedule.PollCron = v
	}
	if v := os.Getenv("ALERT_THRESHOLD_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			cfg.Alert.ThresholdHours = hours
		}
	}

	// Defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Marketplace.PageSize == 0 {
		cfg.Marketplace.PageSize = 50
	}
	if cfg.Publisher.APIURL == "" {
		cfg.Publisher.APIURL = "https://api.x.com"
	}
	if cfg.Publisher.UploadURL == "" {
		cfg.Publisher.UploadURL = "https://upload.twitter.com"
	}
	if cfg.Checkpoint.Path == "" {
		cfg.Checkpoint.Path = "data/checkpoint.json"
	}
	if cfg.Schedule.PollCron == "" {
		cfg.Schedule.PollCron = "0 */5 * * * *" // every 5 minutes
	}
	if cfg.Pipeline.BatchCap == 0 {
		cfg.Pipeline.BatchCap = 3
	}
	if cfg.Pipeline.PaceSeconds == 0 {
		cfg.Pipeline.PaceSeconds = 10
	}
	if cfg.Pipeline.RetryAttempts == 0 {
		cfg.Pipeline.RetryAttempts = 3
	}
	if cfg.Pipeline.RetryBaseMs == 0 {
		cfg.Pipeline.RetryBaseMs = 2000
	}
	if cfg.Alert.ThresholdHours == 0 {
		cfg.Alert.ThresholdHours = 20
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Marketplace.BaseURL == "" {
		return fmt.Errorf("marketplace.base_url is required")
	}
	if c.Marketplace.Collection == "" {
		return fmt.Errorf("marketplace.collection is required")
	}
	if !c.Publisher.DryRun && c.Publisher.BearerToken == "" {
		return fmt.Errorf("publisher.bearer_token is required unless dry_run is set")
	}
	if c.Pipeline.BatchCap < 1 {
		return fmt.Errorf("pipeline.batch_cap must be positive")
	}
	if c.Alert.ThresholdHours < 1 {
		return fmt.Errorf("alert.threshold_hours must be positive")
	}
	return nil
}

// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"

	"github.com/caarlos0/env/v11"
)

// Config is loaded once at start-up and passed explicitly to every component.
type Config struct {
	AccessToken  string `env:"ACCESS_TOKEN,required,notEmpty"`
	SlackWebhook string `env:"SLACK_WEBHOOK,required,notEmpty"`
	SearchURL    string `env:"SEARCH_URL,required,notEmpty"`
	SlackToken   string `env:"SLACK_TOKEN,required,notEmpty"`
	NotionToken  string `env:"NOTION_TOKEN,required,notEmpty"`
	NotionPageID string `env:"NOTION_PAGE_ID,required,notEmpty"`

	GitHubUser    string `env:"GITHUB_USER" envDefault:"bowtie-careers"`
	NotionVersion string `env:"NOTION_VERSION" envDefault:"2022-06-28"`
	RosterFile    string `env:"ROSTER_FILE"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`
	Port          string `env:"PORT" envDefault:"8080"`
	OTELEndpoint  string `env:"OTEL_ENDPOINT"`

	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	SlackCacheTTL   time.Duration `env:"SLACK_CACHE_TTL" envDefault:"24h"`
	NotionRateLimit float64       `env:"NOTION_RATE_LIMIT" envDefault:"3"`
	HTTPAttempts    uint          `env:"HTTP_ATTEMPTS" envDefault:"1"`
	RotationFilter  bool          `env:"REVIEWER_ROTATION_FILTER" envDefault:"false"`
}

// Load reads the configuration from the environment.
// Missing or malformed variables are reported as types.ErrConfigMissing.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w: %w", types.ErrConfigMissing, err)
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("HTTP_TIMEOUT must be positive: %w", types.ErrConfigMissing)
	}
	return cfg, nil
}

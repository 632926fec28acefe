package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"
)

var requiredEnv = map[string]string{
	"ACCESS_TOKEN":   "ghp_test",
	"SLACK_WEBHOOK":  "https://hooks.slack.com/services/T/B/X",
	"SEARCH_URL":     "https://search.example/?q=",
	"SLACK_TOKEN":    "xoxb-test",
	"NOTION_TOKEN":   "secret_test",
	"NOTION_PAGE_ID": "0123456789abcdef",
}

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range requiredEnv {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"GITHUB_USER", "HTTP_TIMEOUT", "HTTP_ATTEMPTS", "NOTION_VERSION", "NOTION_RATE_LIMIT", "REVIEWER_ROTATION_FILTER", "PORT", "SLACK_CACHE_TTL"} {
		t.Setenv(k, "")
		os.Unsetenv(k) //nolint:errcheck // restored by t.Setenv
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AccessToken != "ghp_test" || cfg.NotionPageID != "0123456789abcdef" {
		t.Errorf("required values not loaded: %+v", cfg)
	}
	if cfg.GitHubUser != "bowtie-careers" {
		t.Errorf("GitHubUser = %q", cfg.GitHubUser)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.HTTPAttempts != 1 {
		t.Errorf("HTTPAttempts = %d", cfg.HTTPAttempts)
	}
	if cfg.NotionVersion != "2022-06-28" || cfg.NotionRateLimit != 3 {
		t.Errorf("unexpected notion defaults %q %v", cfg.NotionVersion, cfg.NotionRateLimit)
	}
	if cfg.RotationFilter {
		t.Error("rotation filter should default to off")
	}
	if cfg.Port != "8080" || cfg.SlackCacheTTL != 24*time.Hour {
		t.Errorf("unexpected defaults port=%q ttl=%v", cfg.Port, cfg.SlackCacheTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GITHUB_USER", "someone")
	t.Setenv("HTTP_TIMEOUT", "10s")
	t.Setenv("HTTP_ATTEMPTS", "3")
	t.Setenv("REVIEWER_ROTATION_FILTER", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GitHubUser != "someone" || cfg.HTTPTimeout != 10*time.Second || cfg.HTTPAttempts != 3 || !cfg.RotationFilter {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_Missing(t *testing.T) {
	for name := range requiredEnv {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(name, "")

			_, err := Load()
			if !errors.Is(err, types.ErrConfigMissing) {
				t.Fatalf("expected ErrConfigMissing, got %v", err)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"HTTP_TIMEOUT":  "soon",
		"HTTP_ATTEMPTS": "-1",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			setRequired(t)
			t.Setenv(k, v)
			if _, err := Load(); !errors.Is(err, types.ErrConfigMissing) {
				t.Errorf("expected ErrConfigMissing for %s=%s, got %v", k, v, err)
			}
		})
	}

	t.Run("zero timeout", func(t *testing.T) {
		setRequired(t)
		t.Setenv("HTTP_TIMEOUT", "0s")
		if _, err := Load(); !errors.Is(err, types.ErrConfigMissing) {
			t.Errorf("expected ErrConfigMissing, got %v", err)
		}
	})
}

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

func TestLoadRoster(t *testing.T) {
	path := writeRoster(t, `
fallback:
  Backend Engineer: ["<@U1>", "<@U2>", ""]
  Frontend Engineer:
    - "<@U3>"
  AI Engineer: []
`)

	roster, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster() error: %v", err)
	}
	if got := roster.For("Backend Engineer"); len(got) != 2 || got[1] != "<@U2>" {
		t.Errorf("Backend Engineer = %v", got)
	}
	if got := roster.For("Frontend Engineer"); len(got) != 1 {
		t.Errorf("Frontend Engineer = %v", got)
	}
	if _, ok := roster["AI Engineer"]; ok {
		t.Error("empty entries should be dropped")
	}
}

func TestLoadRoster_EmptyPath(t *testing.T) {
	roster, err := LoadRoster("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roster) != 0 {
		t.Errorf("expected empty roster, got %v", roster)
	}
}

func TestLoadRoster_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.yaml")},
		{"bad yaml", writeRoster(t, "fallback: [unclosed")},
		{"unknown role", writeRoster(t, "fallback:\n  Chef: [\"<@U1>\"]\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadRoster(tt.path); !errors.Is(err, types.ErrConfigMissing) {
				t.Errorf("expected ErrConfigMissing, got %v", err)
			}
		})
	}
}

// Package slack resolves Slack user ids and posts webhook messages.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/cache"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/httpapi"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"
)

// DefaultBaseURL is the Slack Web API endpoint.
const DefaultBaseURL = "https://slack.com/api"

// Client handles Slack Web API lookups and incoming-webhook posts.
type Client struct {
	api        *httpapi.Requester
	webhook    *httpapi.Requester
	userIDs    cache.Store[string] // nil when caching is disabled
	baseURL    string
	webhookURL string
}

// Config holds configuration for creating a new Slack client.
type Config struct {
	Doer        httpapi.HTTPDoer // nil = http.Client with HTTPTimeout
	BaseURL     string           // empty = DefaultBaseURL
	Token       string           // bot token for users.lookupByEmail
	WebhookURL  string
	HTTPTimeout time.Duration
	UserIDTTL   time.Duration // 0 disables the user id cache
	Attempts    uint
}

// New creates a new Slack client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("slack token is required")
	}
	if cfg.WebhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	doer := cfg.Doer
	if doer == nil {
		doer = httpapi.NewHTTPClient(cfg.HTTPTimeout)
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		webhookURL: cfg.WebhookURL,
		api: &httpapi.Requester{
			Doer:      doer,
			Component: "slack",
			Attempts:  cfg.Attempts,
			Authorize: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+cfg.Token) },
		},
		webhook: &httpapi.Requester{
			Doer:      doer,
			Component: "slack-webhook",
			Attempts:  cfg.Attempts,
			Redact:    true,
		},
	}
	if cfg.UserIDTTL > 0 {
		c.userIDs = cache.New[string](cfg.UserIDTTL)
	}
	return c, nil
}

// LookupUserID returns the Slack user id registered for an e-mail address.
func (c *Client) LookupUserID(ctx context.Context, email string) (string, error) {
	if c.userIDs != nil {
		if id, ok := c.userIDs.Get(email); ok {
			return id, nil
		}
	}

	apiURL := c.baseURL + "/users.lookupByEmail?email=" + url.QueryEscape(email)
	resp, err := c.api.Do(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to look up slack user: %w", err)
	}
	defer httpapi.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", httpapi.ReadError(resp, "failed to look up slack user")
	}

	var out struct {
		Error string `json:"error"`
		User  *struct {
			ID string `json:"id"`
		} `json:"user"`
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode slack user: %w: %w", types.ErrSchemaMismatch, err)
	}
	if !out.OK && out.Error != "" {
		return "", fmt.Errorf("slack users.lookupByEmail: %w: %s", types.ErrSchemaMismatch, out.Error)
	}
	if out.User == nil || out.User.ID == "" {
		return "", fmt.Errorf("slack users.lookupByEmail: %w: no user id", types.ErrSchemaMismatch)
	}

	if c.userIDs != nil {
		c.userIDs.Set(email, out.User.ID)
	}
	return out.User.ID, nil
}

// PostMessage sends text to the configured incoming webhook and returns the response status.
func (c *Client) PostMessage(ctx context.Context, text string) (int, error) {
	resp, err := c.webhook.Do(ctx, http.MethodPost, c.webhookURL, map[string]string{"text": text})
	if err != nil {
		return 0, fmt.Errorf("failed to post slack message: %w", err)
	}
	defer httpapi.DrainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, httpapi.ReadError(resp, "failed to post slack message")
	}
	return resp.StatusCode, nil
}

// PurgeCache drops expired user ids.
func (c *Client) PurgeCache() {
	if c.userIDs != nil {
		c.userIDs.Purge()
	}
}

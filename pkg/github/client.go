// Package github provides the GitHub repository-invitation API client.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/httpapi"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"
)

// DefaultBaseURL is the public GitHub REST endpoint.
const DefaultBaseURL = "https://api.github.com"

// Client handles all GitHub API interactions.
type Client struct {
	req     *httpapi.Requester
	baseURL string
}

// Config holds configuration for creating a new GitHub client.
type Config struct {
	Doer        httpapi.HTTPDoer // nil = http.Client with HTTPTimeout
	BaseURL     string           // empty = DefaultBaseURL
	User        string           // basic-auth user that owns the invitations
	Token       string           // personal access token
	HTTPTimeout time.Duration
	Attempts    uint
}

// New creates a new GitHub API client using basic authentication.
func New(cfg Config) (*Client, error) {
	if cfg.User == "" {
		return nil, errors.New("github user is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("github token is required")
	}

	doer := cfg.Doer
	if doer == nil {
		doer = httpapi.NewHTTPClient(cfg.HTTPTimeout)
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	user, token := cfg.User, cfg.Token
	return &Client{
		baseURL: baseURL,
		req: &httpapi.Requester{
			Doer:      doer,
			Component: "github",
			Attempts:  cfg.Attempts,
			Header:    http.Header{"Accept": []string{"application/vnd.github.v3+json"}},
			Authorize: func(r *http.Request) { r.SetBasicAuth(user, token) },
		},
	}, nil
}

// PendingInvitations lists the repository invitations pending for the authenticated user.
// Only the first page is read; invitation volume is human-scale.
func (c *Client) PendingInvitations(ctx context.Context) ([]types.Invitation, error) {
	apiURL := c.baseURL + "/user/repository_invitations"
	resp, err := c.req.Do(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer httpapi.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, httpapi.ReadError(resp, "failed to list invitations")
	}

	var invitations []types.Invitation
	if err := json.NewDecoder(resp.Body).Decode(&invitations); err != nil {
		return nil, fmt.Errorf("failed to decode invitations: %w: %w", types.ErrSchemaMismatch, err)
	}

	slog.Debug("Fetched invitations", "component", "github", "count", len(invitations))
	return invitations, nil
}

// AcceptInvitation accepts an invitation through its API URL and returns the response status.
func (c *Client) AcceptInvitation(ctx context.Context, inv types.Invitation) (int, error) {
	if inv.URL == "" {
		return 0, fmt.Errorf("invitation %d has no url: %w", inv.ID, types.ErrSchemaMismatch)
	}

	resp, err := c.req.Do(ctx, http.MethodPatch, inv.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to accept invitation %d: %w", inv.ID, err)
	}
	defer httpapi.DrainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, httpapi.ReadError(resp, fmt.Sprintf("failed to accept invitation %d", inv.ID))
	}
	return resp.StatusCode, nil
}

// Package notion reads reviewer rosters from a Notion workspace.
package notion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/httpapi"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Notion API defaults.
const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"

	maxQueryPages = 10 // 100 records per page is far above any real roster
)

// Reviewer columns, in priority order. The roster databases are not uniform.
var reviewerFields = []string{"Take-home Assignment", "Reviewer & Interviewer"}

// Client talks to the Notion REST API.
type Client struct {
	req     *httpapi.Requester
	baseURL string
}

// Config holds configuration for creating a new Notion client.
type Config struct {
	Doer        httpapi.HTTPDoer // nil = http.Client with HTTPTimeout
	BaseURL     string           // empty = DefaultBaseURL
	Token       string
	Version     string  // empty = DefaultVersion
	RateLimit   float64 // requests per second; 0 disables limiting
	HTTPTimeout time.Duration
	Attempts    uint
}

// Window restricts a roster query to records whose Start Date / End Date range
// contains either At or Today (both ISO-8601 strings).
type Window struct {
	At    string
	Today string
}

// New creates a new Notion client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("notion token is required")
	}

	doer := cfg.Doer
	if doer == nil {
		doer = httpapi.NewHTTPClient(cfg.HTTPTimeout)
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	token := cfg.Token
	return &Client{
		baseURL: baseURL,
		req: &httpapi.Requester{
			Doer:      doer,
			Limiter:   limiter,
			Component: "notion",
			Attempts:  cfg.Attempts,
			Header:    http.Header{"Notion-Version": []string{version}},
			Authorize: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
		},
	}, nil
}

// ChildDatabases lists the databases nested directly under a page.
// Blocks that are not databases are skipped.
func (c *Client) ChildDatabases(ctx context.Context, pageID string) ([]types.ChildDatabase, error) {
	apiURL := fmt.Sprintf("%s/v1/blocks/%s/children", c.baseURL, url.PathEscape(pageID))
	body, err := c.call(ctx, http.MethodGet, apiURL, nil, "list child databases")
	if err != nil {
		return nil, err
	}

	results := gjson.GetBytes(body, "results")
	if !results.IsArray() {
		return nil, fmt.Errorf("list child databases: %w: missing results", types.ErrSchemaMismatch)
	}

	var dbs []types.ChildDatabase
	results.ForEach(func(_, block gjson.Result) bool {
		title := block.Get("child_database.title")
		if !title.Exists() {
			return true
		}
		dbs = append(dbs, types.ChildDatabase{
			ID:    block.Get("id").String(),
			Title: title.String(),
		})
		return true
	})
	return dbs, nil
}

// QueryReviewerEmails returns every reviewer e-mail found in a roster database,
// in record order and possibly with duplicates.
func (c *Client) QueryReviewerEmails(ctx context.Context, databaseID string, window *Window) ([]string, error) {
	apiURL := fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, url.PathEscape(databaseID))

	var emails []string
	cursor := ""
	for page := 0; page < maxQueryPages; page++ {
		payload := queryBody(window, cursor)
		body, err := c.call(ctx, http.MethodPost, apiURL, payload, "query roster database")
		if err != nil {
			return nil, err
		}

		results := gjson.GetBytes(body, "results")
		if !results.IsArray() {
			return nil, fmt.Errorf("query roster database: %w: missing results", types.ErrSchemaMismatch)
		}
		results.ForEach(func(_, record gjson.Result) bool {
			emails = append(emails, recordEmails(record)...)
			return true
		})

		if !gjson.GetBytes(body, "has_more").Bool() {
			return emails, nil
		}
		cursor = gjson.GetBytes(body, "next_cursor").String()
		if cursor == "" {
			return emails, nil
		}
	}

	slog.Warn("Roster query truncated", "component", "notion", "database", databaseID, "pages", maxQueryPages)
	return emails, nil
}

// recordEmails extracts people e-mails from the first reviewer column present on a record.
func recordEmails(record gjson.Result) []string {
	props := record.Get("properties")

	var column gjson.Result
	for _, field := range reviewerFields {
		if column = props.Get(field); column.Exists() {
			break
		}
	}
	if !column.Exists() {
		return nil
	}

	var emails []string
	column.Get("people").ForEach(func(_, person gjson.Result) bool {
		if email := person.Get("person.email").String(); email != "" {
			emails = append(emails, email)
		}
		return true
	})
	return emails
}

func queryBody(window *Window, cursor string) map[string]any {
	body := map[string]any{}
	if window != nil {
		body["filter"] = map[string]any{
			"or": []any{dateRange(window.At), dateRange(window.Today)},
		}
	}
	if cursor != "" {
		body["start_cursor"] = cursor
	}
	return body
}

func dateRange(at string) map[string]any {
	return map[string]any{
		"and": []any{
			map[string]any{"property": "Start Date", "date": map[string]string{"on_or_before": at}},
			map[string]any{"property": "End Date", "date": map[string]string{"on_or_after": at}},
		},
	}
}

// call performs a request and returns the validated JSON body of a 200 response.
func (c *Client) call(ctx context.Context, method, apiURL string, payload any, what string) ([]byte, error) {
	resp, err := c.req.Do(ctx, method, apiURL, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer httpapi.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, httpapi.ReadError(resp, what)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: read body: %w", what, types.ErrUpstreamUnavailable, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: %w: invalid json", what, types.ErrSchemaMismatch)
	}
	return body, nil
}

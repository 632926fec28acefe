package slack

import "context"

// API defines the Slack operations the invitation processor relies on.
type API interface {
	LookupUserID(ctx context.Context, email string) (string, error)
	PostMessage(ctx context.Context, text string) (int, error)
}

var _ API = (*Client)(nil)

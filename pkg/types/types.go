// Package types contains shared data structures used across the invitation bot.
//
//nolint:revive // "types" is a standard Go package name for shared data structures
package types

import "strings"

// Invitation represents a pending GitHub repository invitation.
type Invitation struct {
	CreatedAt  string     `json:"created_at"`
	URL        string     `json:"url"` // accept endpoint (PATCH)
	Repository Repository `json:"repository"`
	ID         int64      `json:"id"`
	Expired    bool       `json:"expired"`
}

// Repository is the subset of repository fields the bot needs.
type Repository struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

// Name returns the repository name without its owner prefix.
// A full name without a slash is returned unchanged.
func (r Repository) Name() string {
	if _, name, ok := strings.Cut(r.FullName, "/"); ok {
		return name
	}
	return r.FullName
}

// ChildDatabase is a database block nested under a Notion page.
type ChildDatabase struct {
	ID    string
	Title string
}

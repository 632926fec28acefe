package reviewer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/candidate"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/notion"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"
)

// NotionAPI is the subset of the Notion client the resolver uses.
type NotionAPI interface {
	ChildDatabases(ctx context.Context, pageID string) ([]types.ChildDatabase, error)
	QueryReviewerEmails(ctx context.Context, databaseID string, window *notion.Window) ([]string, error)
}

// Resolver maps a role to the reviewer pool recorded in the Notion workspace.
type Resolver struct {
	notion         NotionAPI
	now            func() time.Time
	pageID         string
	rotationFilter bool
}

// ResolverConfig holds configuration for creating a Resolver.
type ResolverConfig struct {
	Notion         NotionAPI
	PageID         string // page whose child databases hold the per-role rosters
	RotationFilter bool   // only keep records whose rotation window covers the invitation
}

// NewResolver creates a Resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		notion:         cfg.Notion,
		pageID:         cfg.PageID,
		rotationFilter: cfg.RotationFilter,
		now:            time.Now,
	}
}

// Resolve returns the reviewer pool for a role.
//
// Every failure yields an empty pool together with an error wrapping one of
// types.ErrNameParse, types.ErrAmbiguousMatch, types.ErrEmptyReviewerPool, types.ErrUpstreamUnavailable
// or types.ErrSchemaMismatch. Callers branch on len(pool) and log the error.
func (r *Resolver) Resolve(ctx context.Context, role candidate.Role, createdAt string) (Pool, error) {
	if !role.Found() {
		return nil, fmt.Errorf("no role keyword in repository name: %w", types.ErrNameParse)
	}

	dbID, err := r.databaseID(ctx, role.Label)
	if err != nil {
		return nil, err
	}

	var window *notion.Window
	if r.rotationFilter {
		window = &notion.Window{At: createdAt, Today: r.now().UTC().Format(time.DateOnly)}
	}

	emails, err := r.notion.QueryReviewerEmails(ctx, dbID, window)
	if err != nil {
		return nil, fmt.Errorf("query reviewers for %q: %w", role.Label, err)
	}

	pool := NewPool(emails)
	if len(pool) == 0 {
		return nil, fmt.Errorf("database for %q lists no reviewers: %w", role.Label, types.ErrEmptyReviewerPool)
	}

	slog.Debug("Resolved reviewer pool", "role", role.Label, "database", dbID, "size", len(pool))
	return pool, nil
}

// databaseID finds the single child database whose title starts with label.
func (r *Resolver) databaseID(ctx context.Context, label string) (string, error) {
	dbs, err := r.notion.ChildDatabases(ctx, r.pageID)
	if err != nil {
		return "", fmt.Errorf("list reviewer databases: %w", err)
	}

	var matches []types.ChildDatabase
	for _, db := range dbs {
		if strings.HasPrefix(db.Title, label) {
			matches = append(matches, db)
		}
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("%d reviewer databases titled %q: %w", len(matches), label, types.ErrAmbiguousMatch)
	}

	return strings.ReplaceAll(matches[0].ID, "-", ""), nil
}

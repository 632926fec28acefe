package reviewer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/candidate"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/notion"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"
)

type fakeNotion struct {
	listErr    error
	queryErr   error
	emails     map[string][]string
	lastWindow *notion.Window
	queried    []string
	dbs        []types.ChildDatabase
}

func (f *fakeNotion) ChildDatabases(context.Context, string) ([]types.ChildDatabase, error) {
	return f.dbs, f.listErr
}

func (f *fakeNotion) QueryReviewerEmails(_ context.Context, id string, w *notion.Window) ([]string, error) {
	f.queried = append(f.queried, id)
	f.lastWindow = w
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.emails[id], nil
}

var rosterDBs = []types.ChildDatabase{
	{ID: "aaaa-1111", Title: "Frontend Engineer - Interview"},
	{ID: "bbbb-2222", Title: "Backend Engineer - Interview"},
	{ID: "cccc-3333", Title: "Data Engineer/Manager"},
	{ID: "dddd-4444", Title: "DevOps Engineer - Interview"},
	{ID: "eeee-5555", Title: "DevOps Engineer - Archive"},
}

func TestResolver_Resolve(t *testing.T) {
	fn := &fakeNotion{
		dbs:    rosterDBs,
		emails: map[string][]string{"bbbb2222": {"zoe@x.io", "adam@x.io", "zoe@x.io"}},
	}
	r := NewResolver(ResolverConfig{Notion: fn, PageID: "page"})

	pool, err := r.Resolve(context.Background(), candidate.DetectRole("backend"), "2024-05-01T10:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(pool) != "[adam@x.io zoe@x.io]" {
		t.Errorf("unexpected pool %v", pool)
	}
	if len(fn.queried) != 1 || fn.queried[0] != "bbbb2222" {
		t.Errorf("expected query of dash-stripped id, got %v", fn.queried)
	}
	if fn.lastWindow != nil {
		t.Error("window must be nil when the rotation filter is off")
	}
}

func TestResolver_RotationWindow(t *testing.T) {
	fn := &fakeNotion{dbs: rosterDBs, emails: map[string][]string{"cccc3333": {"a@x.io"}}}
	r := NewResolver(ResolverConfig{Notion: fn, PageID: "page", RotationFilter: true})
	r.now = func() time.Time { return time.Date(2024, 6, 2, 23, 0, 0, 0, time.UTC) }

	if _, err := r.Resolve(context.Background(), candidate.DetectRole("data"), "2024-05-01T10:00:00Z"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fn.lastWindow == nil {
		t.Fatal("expected a window")
	}
	if fn.lastWindow.At != "2024-05-01T10:00:00Z" || fn.lastWindow.Today != "2024-06-02" {
		t.Errorf("unexpected window %+v", *fn.lastWindow)
	}
}

func TestResolver_Failures(t *testing.T) {
	tests := []struct {
		notion  *fakeNotion
		wantErr error
		name    string
		role    candidate.Role
	}{
		{
			name:    "role not found",
			notion:  &fakeNotion{dbs: rosterDBs},
			role:    candidate.Role{},
			wantErr: types.ErrNameParse,
		},
		{
			name:    "no matching database",
			notion:  &fakeNotion{dbs: rosterDBs},
			role:    candidate.DetectRole("intern"),
			wantErr: types.ErrAmbiguousMatch,
		},
		{
			name:    "two matching databases",
			notion:  &fakeNotion{dbs: rosterDBs},
			role:    candidate.DetectRole("devops"),
			wantErr: types.ErrAmbiguousMatch,
		},
		{
			name:    "list fails",
			notion:  &fakeNotion{listErr: fmt.Errorf("GET: %w", types.ErrUpstreamUnavailable)},
			role:    candidate.DetectRole("frontend"),
			wantErr: types.ErrUpstreamUnavailable,
		},
		{
			name:    "query schema mismatch",
			notion:  &fakeNotion{dbs: rosterDBs, queryErr: fmt.Errorf("decode: %w", types.ErrSchemaMismatch)},
			role:    candidate.DetectRole("frontend"),
			wantErr: types.ErrSchemaMismatch,
		},
		{
			name:    "no reviewers",
			notion:  &fakeNotion{dbs: rosterDBs, emails: map[string][]string{"aaaa1111": {""}}},
			role:    candidate.DetectRole("frontend"),
			wantErr: types.ErrEmptyReviewerPool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(ResolverConfig{Notion: tt.notion, PageID: "page"})
			pool, err := r.Resolve(context.Background(), tt.role, "2024-05-01T10:00:00Z")
			if len(pool) != 0 {
				t.Errorf("expected empty pool, got %v", pool)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestResolver_PrefixIsCaseSensitive(t *testing.T) {
	fn := &fakeNotion{
		dbs:    []types.ChildDatabase{{ID: "ffff-6666", Title: "ai engineer"}},
		emails: map[string][]string{"ffff6666": {"a@x.io"}},
	}
	r := NewResolver(ResolverConfig{Notion: fn, PageID: "page"})
	_, err := r.Resolve(context.Background(), candidate.DetectRole("ai"), "")
	if !errors.Is(err, types.ErrAmbiguousMatch) {
		t.Errorf("expected ErrAmbiguousMatch, got %v", err)
	}
}

package github

import (
	"context"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"
)

// API defines the invitation operations the processor needs.
type API interface {
	PendingInvitations(ctx context.Context) ([]types.Invitation, error)
	AcceptInvitation(ctx context.Context, inv types.Invitation) (int, error)
}

var _ API = (*Client)(nil)

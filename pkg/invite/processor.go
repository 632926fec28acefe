// Package invite processes pending repository invitations: it announces each
// submitted assessment to the reviewers and then accepts the invitation.
package invite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/candidate"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/github"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/notify"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/reviewer"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/slack"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/bowtie-careers/auto-accept-repo-invites/pkg/invite"

// PoolResolver looks up the reviewer pool for a role.
type PoolResolver interface {
	Resolve(ctx context.Context, role candidate.Role, createdAt string) (reviewer.Pool, error)
}

// Processor runs the per-invitation pipeline.
type Processor struct {
	github   github.API
	resolver PoolResolver
	slack    slack.API
	composer *notify.Composer
	roster   reviewer.Roster
	logger   *slog.Logger
	tracer   trace.Tracer
	dryRun   bool
}

// Config holds the collaborators of a Processor.
type Config struct {
	GitHub   github.API
	Resolver PoolResolver
	Slack    slack.API
	Composer *notify.Composer
	Roster   reviewer.Roster // optional per-role fallback mentions
	Logger   *slog.Logger    // nil = slog.Default()
	DryRun   bool            // resolve and log, but neither notify nor accept
}

// New creates a Processor.
func New(cfg Config) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		github:   cfg.GitHub,
		resolver: cfg.Resolver,
		slack:    cfg.Slack,
		composer: cfg.Composer,
		roster:   cfg.Roster,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		dryRun:   cfg.DryRun,
	}
}

// Run lists the pending invitations once and processes each of them in order.
// A failing invitation never stops the ones after it. The error is only
// non-nil when the invitation list itself could not be fetched.
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	summary := Summary{RunID: runID}
	logger := p.logger.With("run_id", runID)

	ctx, span := p.tracer.Start(ctx, "invite.Run", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	invitations, err := p.github.PendingInvitations(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list invitations")
		logger.Error("Failed to list invitations", "classification", types.Classify(err), "error", err)
		return summary, fmt.Errorf("list invitations: %w", err)
	}
	span.SetAttributes(attribute.Int("invitations", len(invitations)))

	seen := make(map[int64]bool, len(invitations))
	for _, inv := range invitations {
		if seen[inv.ID] {
			logger.Debug("Ignoring duplicate invitation", "invitation_id", inv.ID)
			continue
		}
		seen[inv.ID] = true
		summary.add(p.process(ctx, logger, inv))
	}

	if summary.Processed > 0 {
		logger.Info("Run completed",
			"processed", summary.Processed,
			"accepted", summary.Accepted,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
			"dry_run", p.dryRun)
	}
	return summary, nil
}

// Process handles a single invitation.
func (p *Processor) Process(ctx context.Context, inv types.Invitation) Result {
	return p.process(ctx, p.logger, inv)
}

func (p *Processor) process(ctx context.Context, logger *slog.Logger, inv types.Invitation) Result {
	ctx, span := p.tracer.Start(ctx, "invite.Process",
		trace.WithAttributes(
			attribute.Int64("invitation.id", inv.ID),
			attribute.String("repository", inv.Repository.FullName),
		))
	defer span.End()

	logger = logger.With("invitation_id", inv.ID)
	res := Result{ID: inv.ID, Repository: inv.Repository.FullName, State: StatePending}

	if inv.Expired {
		logger.Info(fmt.Sprintf("Skipped handling invitation %d because the invitation has expired", inv.ID))
		res.State = StateExpired
		span.SetAttributes(attribute.String("state", res.State.String()))
		return res
	}

	res.Candidate = candidate.Parse(inv.Repository.Name())
	res.State = res.classify()
	if !res.Candidate.HasName() {
		err := fmt.Errorf("repository %q: %w", inv.Repository.FullName, types.ErrNameParse)
		logger.Warn("Could not derive candidate name", "classification", types.Classify(err), "error", err)
	}

	slackID, err := p.reviewerSlackID(ctx, logger, inv, &res)
	if err != nil {
		res.Err = err
		return p.fail(span, logger, res, "lookup")
	}

	var fallback []string
	if slackID == "" {
		fallback = p.roster.For(res.Candidate.Role.Label)
	}
	msg := p.composer.Compose(notify.Input{
		CreatedAt:     inv.CreatedAt,
		RepoURL:       inv.Repository.HTMLURL,
		CandidateName: res.Candidate.Name,
		SlackID:       slackID,
		Fallback:      fallback,
	})

	logger.Info(fmt.Sprintf("Accepting invitation ID %d via %s, invited at %s...", inv.ID, inv.URL, inv.CreatedAt),
		"candidate", res.Candidate.Name,
		"role", res.Candidate.Role.String(),
		"reviewer", res.Reviewer)

	if p.dryRun {
		logger.Info("Would notify and accept invitation (dry-run)", "message", msg.Text)
		span.SetAttributes(attribute.String("state", res.State.String()))
		return res
	}

	res.SlackStatus, res.Err = p.slack.PostMessage(ctx, msg.Text)
	if res.Err != nil {
		return p.fail(span, logger, res, "notify")
	}
	res.State = StateNotified

	res.GitHubStatus, res.Err = p.github.AcceptInvitation(ctx, inv)
	if res.Err != nil {
		return p.fail(span, logger, res, "accept")
	}
	res.State = StateAccepted

	logger.Info(fmt.Sprintf("Responses: Slack - %d, GitHub - %d", res.SlackStatus, res.GitHubStatus))
	span.SetAttributes(attribute.String("state", res.State.String()))
	return res
}

// reviewerSlackID resolves the pool, selects a reviewer and returns their Slack id.
// An unknown role or an empty pool is logged and yields "" so the placeholder is used.
// A failed Slack lookup is returned.
func (p *Processor) reviewerSlackID(ctx context.Context, logger *slog.Logger, inv types.Invitation, res *Result) (string, error) {
	if !res.Candidate.Role.Found() {
		logger.Warn("No role keyword found in repository name", "repository", inv.Repository.FullName)
		return "", nil
	}

	pool, err := p.resolver.Resolve(ctx, res.Candidate.Role, inv.CreatedAt)
	if len(pool) == 0 {
		logger.Warn("No matching reviewer database found",
			"role", res.Candidate.Role.String(),
			"classification", types.Classify(err),
			"error", err)
		return "", nil
	}

	res.Reviewer = reviewer.Select(inv.ID, pool)
	id, err := p.slack.LookupUserID(ctx, res.Reviewer)
	if err != nil {
		return "", fmt.Errorf("look up slack user for %s: %w", res.Reviewer, err)
	}
	return id, nil
}

func (*Processor) fail(span trace.Span, logger *slog.Logger, res Result, step string) Result {
	res.State = StateFailed
	span.RecordError(res.Err)
	span.SetStatus(codes.Error, step)
	span.SetAttributes(attribute.String("state", res.State.String()))
	logger.Error(fmt.Sprintf("Error occurred when accepting invitation for invitation %d", res.ID),
		"step", step,
		"classification", types.Classify(res.Err),
		"slack_status", res.SlackStatus,
		"github_status", res.GitHubStatus,
		"error", res.Err)
	return res
}

// Package main implements a bot that announces submitted take-home assessments
// to a reviewer on Slack and accepts the candidate's repository invitation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/config"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/github"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/invite"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/logging"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/notify"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/notion"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/reviewer"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/slack"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/tracing"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"
)

const serviceName = "auto-accept-invites"

var (
	verbose    = flag.Bool("v", false, "Enable debug logging")
	dryRun     = flag.Bool("dry-run", false, "Resolve and log everything, but neither notify nor accept")
	schedule   = flag.String("schedule", "", "Cron schedule (e.g. \"*/10 * * * *\"); empty runs once and exits")
	rosterPath = flag.String("roster", "", "Path to the fallback roster YAML (overrides ROSTER_FILE)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Accepts pending assessment repository invitations and notifies a reviewer on Slack.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nRequired environment variables:\n")
		fmt.Fprintf(os.Stderr, "  ACCESS_TOKEN    - GitHub token for the invitee account (GITHUB_USER, default bowtie-careers)\n")
		fmt.Fprintf(os.Stderr, "  SLACK_WEBHOOK   - Incoming webhook the notification is posted to\n")
		fmt.Fprintf(os.Stderr, "  SLACK_TOKEN     - Bot token used to look up reviewers by e-mail\n")
		fmt.Fprintf(os.Stderr, "  SEARCH_URL      - Candidate search URL prefix\n")
		fmt.Fprintf(os.Stderr, "  NOTION_TOKEN    - Notion integration token\n")
		fmt.Fprintf(os.Stderr, "  NOTION_PAGE_ID  - Page holding one reviewer database per role\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		slog.Error("Exiting", "classification", types.Classify(err), "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	logger := logging.Setup(level, cfg.LogFormat)

	path := cfg.RosterFile
	if *rosterPath != "" {
		path = *rosterPath
	}
	roster, err := config.LoadRoster(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := tracing.Setup(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		slog.Warn("Tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}()

	processor, slackClient, err := build(cfg, roster, logger)
	if err != nil {
		return err
	}

	if *schedule == "" {
		_, err := processor.Run(ctx)
		return err
	}

	sched, staleAfter, err := parseSchedule(*schedule)
	if err != nil {
		return err
	}
	svc := &service{
		runner:       processor,
		metrics:      NewMetricsCollector(),
		staleAfter:   staleAfter,
		housekeeping: slackClient.PurgeCache,
	}
	slog.Info("Starting in scheduled mode", "schedule", *schedule, "dry_run", *dryRun)
	if err := runScheduled(ctx, svc, sched, cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// build wires the API clients into an invitation processor.
func build(cfg config.Config, roster reviewer.Roster, logger *slog.Logger) (*invite.Processor, *slack.Client, error) {
	gh, err := github.New(github.Config{
		User:        cfg.GitHubUser,
		Token:       cfg.AccessToken,
		HTTPTimeout: cfg.HTTPTimeout,
		Attempts:    cfg.HTTPAttempts,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("github client: %w", err)
	}

	nc, err := notion.New(notion.Config{
		Token:       cfg.NotionToken,
		Version:     cfg.NotionVersion,
		RateLimit:   cfg.NotionRateLimit,
		HTTPTimeout: cfg.HTTPTimeout,
		Attempts:    cfg.HTTPAttempts,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("notion client: %w", err)
	}

	sc, err := slack.New(slack.Config{
		Token:       cfg.SlackToken,
		WebhookURL:  cfg.SlackWebhook,
		HTTPTimeout: cfg.HTTPTimeout,
		UserIDTTL:   cfg.SlackCacheTTL,
		Attempts:    cfg.HTTPAttempts,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("slack client: %w", err)
	}

	p := invite.New(invite.Config{
		GitHub: gh,
		Resolver: reviewer.NewResolver(reviewer.ResolverConfig{
			Notion:         nc,
			PageID:         cfg.NotionPageID,
			RotationFilter: cfg.RotationFilter,
		}),
		Slack:    sc,
		Composer: notify.NewComposer(cfg.SearchURL),
		Roster:   roster,
		Logger:   logger,
		DryRun:   *dryRun,
	})
	return p, sc, nil
}

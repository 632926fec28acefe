package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// parseSchedule parses a standard five-field cron spec (or a descriptor such as
// "@every 10m") and returns it with a staleness threshold of two periods.
func parseSchedule(spec string) (cron.Schedule, time.Duration, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	first := sched.Next(time.Now())
	period := sched.Next(first).Sub(first)
	return sched, 2*period + time.Minute, nil
}

// runScheduled runs the service on the schedule, serving health and poll
// endpoints, until ctx is cancelled. The first run starts immediately.
func runScheduled(ctx context.Context, s *service, sched cron.Schedule, port string) error {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	c.Schedule(sched, cron.FuncJob(func() {
		s.runOnce(ctx, "schedule") //nolint:errcheck // logged by runOnce
	}))
	if s.housekeeping != nil {
		if _, err := c.AddFunc("@hourly", s.housekeeping); err != nil {
			return fmt.Errorf("schedule housekeeping: %w", err)
		}
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.serve(ctx, port) }()

	s.runOnce(ctx, "startup") //nolint:errcheck // logged by runOnce

	slog.Info("Starting cron scheduler", "next_run", sched.Next(time.Now()).Format(time.RFC3339))
	c.Start()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	slog.Info("Stopping cron scheduler")
	<-c.Stop().Done()
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/invite"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// runner is the part of invite.Processor the service drives.
type runner interface {
	Run(ctx context.Context) (invite.Summary, error)
}

// service serializes runs coming from the schedule and from manual polls.
type service struct {
	runner       runner
	metrics      *MetricsCollector
	housekeeping func()        // optional, run hourly in scheduled mode
	staleAfter   time.Duration // 0 disables staleness reporting
	runMu        sync.Mutex
}

// errRunInProgress is returned when a run is requested while another is active.
var errRunInProgress = errors.New("run already in progress")

// runOnce performs one pass unless another one is still active.
func (s *service) runOnce(ctx context.Context, trigger string) error {
	if !s.runMu.TryLock() {
		slog.Info("Skipping run, previous run still active", "trigger", trigger)
		return errRunInProgress
	}
	defer s.runMu.Unlock()
	return s.runLocked(ctx, trigger)
}

// runLocked performs one pass; the caller holds runMu.
func (s *service) runLocked(ctx context.Context, trigger string) error {
	start := time.Now()
	summary, err := s.runner.Run(ctx)
	s.metrics.RecordRun(summary, err)
	if err != nil {
		slog.Error("Run failed", "trigger", trigger, "error", err)
		return err
	}
	slog.Debug("Run finished", "trigger", trigger, "duration", time.Since(start), "run_id", summary.RunID)
	return nil
}

// router builds the health/poll HTTP surface.
func (s *service) router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/_-_/health", s.handleHealth)
	r.Post("/_-_/poll", s.handlePoll(ctx))
	r.Get("/_-_/poll", s.handlePoll(ctx))
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "auto-accept-invites\n/_-_/health - Health status\n/_-_/poll - Trigger manual poll\n")
	})
	return r
}

func (s *service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.metrics.Stats()

	status := "ok"
	statusCode := http.StatusOK
	if s.staleAfter > 0 && stats.TotalRuns > 0 && time.Since(stats.LastRun) > s.staleAfter {
		status = "stale"
		statusCode = http.StatusServiceUnavailable
	}

	writeText(w, statusCode, fmt.Sprintf("%s - %d invitations seen, %d accepted, %d failed (last: %s, runs: %d)\n",
		status, stats.Seen, stats.Accepted, stats.Failed,
		stats.LastRun.Format(time.RFC3339), stats.TotalRuns))
}

func (s *service) handlePoll(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		// Hold the lock here so a second poll sees the conflict immediately.
		if !s.runMu.TryLock() {
			writeText(w, http.StatusConflict, "Polling already in progress\n")
			return
		}

		go func() {
			defer s.runMu.Unlock()
			slog.Info("Manual poll triggered")
			s.runLocked(context.WithoutCancel(ctx), "poll") //nolint:errcheck // logged by runLocked
		}()

		writeText(w, http.StatusAccepted, "Poll triggered\n")
	}
}

// serve runs the HTTP server until ctx is cancelled.
func (s *service) serve(ctx context.Context, port string) error {
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      s.router(ctx),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Health server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting health server", "port", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("HTTP request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeText(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

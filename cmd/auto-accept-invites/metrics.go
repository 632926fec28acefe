package main

import (
	"sync"
	"time"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/invite"
)

// MetricsCollector tracks metrics for the health endpoint.
type MetricsCollector struct {
	uniqueSeen     map[int64]bool
	uniqueAccepted map[int64]bool
	lastRun        time.Time
	lastError      string
	mu             sync.RWMutex
	totalRuns      int64
	failed         int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		uniqueSeen:     make(map[int64]bool),
		uniqueAccepted: make(map[int64]bool),
	}
}

// RecordRun records the outcome of one run.
func (m *MetricsCollector) RecordRun(summary invite.Summary, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range summary.Results {
		m.uniqueSeen[r.ID] = true
		switch r.State {
		case invite.StateAccepted:
			m.uniqueAccepted[r.ID] = true
		case invite.StateFailed:
			m.failed++
		default:
		}
	}

	m.lastError = ""
	if err != nil {
		m.lastError = err.Error()
	}
	m.lastRun = time.Now()
	m.totalRuns++
}

// Stats represents collected metrics.
type Stats struct {
	LastRun   time.Time
	LastError string
	TotalRuns int64
	Failed    int64 // failed attempts, counted per run
	Seen      int
	Accepted  int
}

// Stats returns the current statistics.
func (m *MetricsCollector) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Seen:      len(m.uniqueSeen),
		Accepted:  len(m.uniqueAccepted),
		Failed:    m.failed,
		LastRun:   m.lastRun,
		LastError: m.lastError,
		TotalRuns: m.totalRuns,
	}
}

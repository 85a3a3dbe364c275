// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/pgcreds/pkg/errutil"
)

// CheckFunc performs one database check.
type CheckFunc func(ctx context.Context) error

// Prober runs a CheckFunc on an interval and tracks whether the last run
// succeeded.
type Prober struct {
	check    CheckFunc
	interval time.Duration
	timeout  time.Duration
	metrics  *Metrics
	logger   *slog.Logger
	ready    atomic.Bool
}

// NewProber creates a Prober. Each check gets at most interval to finish.
func NewProber(check CheckFunc, interval time.Duration, metrics *Metrics, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		check:    check,
		interval: interval,
		timeout:  interval,
		metrics:  metrics,
		logger:   logger,
	}
}

// Ready reports whether the most recent check succeeded.
func (p *Prober) Ready() bool {
	return p.ready.Load()
}

// CheckOnce runs a single check and records its outcome.
func (p *Prober) CheckOnce(ctx context.Context) error {
	checkID := ulid.Make().String()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.check(ctx)
	elapsed := time.Since(start)

	if p.metrics != nil {
		p.metrics.CheckDuration.Observe(elapsed.Seconds())
	}

	if err != nil {
		p.ready.Store(false)
		if p.metrics != nil {
			p.metrics.ChecksTotal.WithLabelValues(StatusFailed).Inc()
		}
		errutil.LogError(p.logger.With("check_id", checkID), "database check failed", err)
		return err
	}

	p.ready.Store(true)
	if p.metrics != nil {
		p.metrics.ChecksTotal.WithLabelValues(StatusOK).Inc()
		p.metrics.LastSuccess.SetToCurrentTime()
	}
	p.logger.Debug("database check passed", "check_id", checkID, "duration", elapsed)
	return nil
}

// Run checks immediately and then on every tick until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	//nolint:errcheck // outcome is recorded in metrics and readiness
	p.CheckOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			//nolint:errcheck // outcome is recorded in metrics and readiness
			p.CheckOnce(ctx)
		}
	}
}

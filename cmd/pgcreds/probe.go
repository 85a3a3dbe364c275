// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/pgcreds/internal/config"
	"github.com/holomush/pgcreds/internal/database"
	"github.com/holomush/pgcreds/internal/observability"
)

func newProbeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <service>",
		Short: "Serve metrics and health probes for a service",
		Long: `Resolve a service and ping it on an interval. Readiness at
/healthz/readiness follows the last ping; metrics are served at /metrics.
Runs until SIGINT or SIGTERM.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runProbe(ctx, args[0], nil)
		},
	}

	addConnectFlags(cmd)
	cmd.Flags().String("addr", config.DefaultProbeAddr, "metrics/health HTTP listen address")
	cmd.Flags().String("interval", config.DefaultProbeInterval, "time between database checks")

	return cmd
}

// runProbe blocks until ctx is done or the HTTP server fails. started, when
// non-nil, receives the server once it is listening.
func (a *app) runProbe(ctx context.Context, serviceName string, started func(*observability.Server)) error {
	cred, err := a.resolve(serviceName)
	if err != nil {
		return err
	}
	opts, err := a.cfg.ConnectOptions()
	if err != nil {
		return err
	}
	interval, err := a.cfg.ProbeInterval()
	if err != nil {
		return err
	}

	pool, err := database.Open(ctx, cred, opts)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger := a.logger.With("service", serviceName)
	constraint := a.cfg.Connect.MinServerVersion

	server := observability.NewServer(a.cfg.Probe.Addr, nil)
	prober := observability.NewProber(func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		if constraint == "" {
			return nil
		}
		v, err := pool.ServerVersion(ctx)
		if err != nil {
			return err
		}
		return database.CheckServerVersion(v, constraint)
	}, interval, server.Metrics(), logger)
	server.SetReadinessChecker(prober.Ready)

	errCh, err := server.Start()
	if err != nil {
		return oops.With("addr", a.cfg.Probe.Addr).Wrap(err)
	}
	if started != nil {
		started(server)
	}
	logger.Info("probe running", "addr", server.Addr(), "interval", interval, "target", cred.Target())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		prober.Run(runCtx)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down probe", "reason", context.Cause(ctx))
	case err, ok := <-errCh:
		if ok && err != nil {
			serveErr = oops.Code("PROBE_SERVER_FAILED").Wrap(err)
		}
	}

	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}

	return serveErr
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package observability serves metrics and health probes for a resolved
// PostgreSQL service.
package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"github.com/holomush/pgcreds/internal/credential"
)

// Error codes returned by Start.
const (
	CodeAlreadyRunning = "PROBE_ALREADY_RUNNING"
	CodeListenFailed   = "PROBE_LISTEN_FAILED"
)

const readHeaderTimeout = 10 * time.Second

// ReadinessChecker returns whether the probed service is reachable.
type ReadinessChecker func() bool

// Check status labels.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics contains the probe's Prometheus metrics.
type Metrics struct {
	ChecksTotal   *prometheus.CounterVec
	LastSuccess   prometheus.Gauge
	CheckDuration prometheus.Histogram
}

// NewMetrics creates and registers probe metrics, plus the credential
// resolution counter.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgcreds_probe_checks_total",
				Help: "Total number of database checks by status",
			},
			[]string{"status"},
		),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pgcreds_probe_last_success_timestamp_seconds",
			Help: "Unix time of the last successful database check",
		}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pgcreds_probe_check_duration_seconds",
			Help:    "Duration of database checks",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.ChecksTotal)
	reg.MustRegister(m.LastSuccess)
	reg.MustRegister(m.CheckDuration)
	credential.RegisterMetrics(reg)

	return m
}

// Server serves /metrics, /healthz/liveness and /healthz/readiness from a
// private Prometheus registry.
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a server for addr ("host:port"; port 0 picks a free
// one). A nil readiness checker always reports ready.
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  NewMetrics(registry),
		isReady:  readinessChecker,
	}
}

// Metrics returns the probe metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// SetReadinessChecker replaces the readiness checker. Call before Start.
func (s *Server) SetReadinessChecker(checker ReadinessChecker) {
	s.isReady = checker
}

// Handler returns the HTTP routes without binding a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("GET /healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, true)
	})
	mux.HandleFunc("GET /healthz/readiness", func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, s.isReady == nil || s.isReady())
	})
	return mux
}

// Start binds addr and serves in the background. The returned channel
// carries a serve failure, if any, and is closed once serving ends.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code(CodeAlreadyRunning).With("addr", s.addr).Errorf("probe server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code(CodeListenFailed).With("addr", s.addr).Wrap(err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func(srv *http.Server) {
		defer close(errCh)
		err := srv.Serve(listener)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		slog.Error("probe server stopped serving", "addr", listener.Addr().String(), "error", err)
		errCh <- err
	}(s.httpServer)

	slog.Info("probe server listening", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx
// ends. Stopping a server that is not running is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("addr", s.Addr()).Wrap(err)
	}
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func writeProbe(w http.ResponseWriter, ok bool) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	body := "ok\n"
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		body = "not ready\n"
	}
	//nolint:errcheck // the client may already be gone
	io.WriteString(w, body)
}

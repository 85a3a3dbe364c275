// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package database opens PostgreSQL connections from resolved credentials.
package database

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/pgcreds/internal/credential"
)

// Error codes returned by this package.
const (
	CodeConnectFailed      = "DB_CONNECT_FAILED"
	CodeAuthFailed         = "DB_AUTH_FAILED"
	CodeDatabaseNotFound   = "DB_NOT_FOUND"
	CodePingFailed         = "DB_PING_FAILED"
	CodeVersionFailed      = "DB_VERSION_FAILED"
	CodeVersionUnsupported = "SERVER_VERSION_UNSUPPORTED"
)

// Defaults applied by Options when a field is zero.
const (
	DefaultScheme   = "postgres"
	DefaultAttempts = 3
	DefaultBackoff  = 250 * time.Millisecond
)

// Options tune Connect.
type Options struct {
	// Scheme of the connection URL, "postgres" or "postgresql".
	Scheme string
	// Attempts is the number of pings before giving up. Zero means DefaultAttempts.
	Attempts uint64
	// Backoff is the base of the exponential delay between pings.
	Backoff time.Duration
	// MaxConns caps the pool size. Zero keeps the pgxpool default.
	MaxConns int32
}

func (o Options) withDefaults() Options {
	if o.Scheme == "" {
		o.Scheme = DefaultScheme
	}
	if o.Attempts == 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Backoff <= 0 {
		o.Backoff = DefaultBackoff
	}
	return o
}

// ConnString returns <scheme>://<host>:<port>/<dbname>, plus sslmode when
// the service set one. A host starting with "/" is a Unix socket directory
// and moves to the host and port query parameters. User and password are
// never part of the URL.
func ConnString(scheme string, c credential.Credential) string {
	u := url.URL{
		Scheme: scheme,
		Path:   "/" + c.DBName,
	}
	query := url.Values{}
	if strings.HasPrefix(c.Host, "/") {
		query.Set("host", c.Host)
		query.Set("port", strconv.Itoa(c.Port))
	} else {
		u.Host = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	}
	if c.SSLMode != "" {
		query.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// pgxPool is the subset of *pgxpool.Pool used here.
type pgxPool interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

// Pool is a connection pool opened from a Credential.
type Pool struct {
	pool    pgxPool
	service string
}

// Open creates a pool for c without contacting the server. Connections
// are established lazily.
func Open(ctx context.Context, c credential.Credential, opts Options) (*Pool, error) {
	opts = opts.withDefaults()

	if _, err := c.Mode(); err != nil {
		//nolint:wrapcheck // Mode errors already carry code and context
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(ConnString(opts.Scheme, c))
	if err != nil {
		return nil, oops.Code(CodeConnectFailed).
			With("service", c.Service).
			With("operation", "parse connection config").
			Wrap(err)
	}
	cfg.ConnConfig.User = c.User
	cfg.ConnConfig.Password = c.Password
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code(CodeConnectFailed).
			With("service", c.Service).
			With("operation", "create pool").
			Wrap(err)
	}
	return &Pool{pool: pool, service: c.Service}, nil
}

// Connect opens a pool for c and pings it until it answers or the attempts
// run out. Authentication failures and unknown databases are not retried.
func Connect(ctx context.Context, c credential.Credential, opts Options) (*Pool, error) {
	opts = opts.withDefaults()

	p, err := Open(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	if err := p.PingWithRetry(ctx, opts.Attempts, opts.Backoff); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// Close closes every connection in the pool.
func (p *Pool) Close() {
	p.pool.Close()
}

// Ping checks the server once.
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return classify(err, p.service, CodePingFailed)
	}
	return nil
}

// PingWithRetry pings with exponential backoff, at most attempts times.
func (p *Pool) PingWithRetry(ctx context.Context, attempts uint64, backoff time.Duration) error {
	if attempts == 0 {
		attempts = 1
	}
	b := retry.WithMaxRetries(attempts-1, retry.NewExponential(backoff))

	//nolint:wrapcheck // errors are classified inside the retry func
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := p.Ping(ctx)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// WithConn acquires a connection, runs fn, and releases the connection on
// every path.
func (p *Pool) WithConn(ctx context.Context, fn func(ctx context.Context, conn *pgxpool.Conn) error) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return classify(err, p.service, CodeConnectFailed)
	}
	defer conn.Release()

	return fn(ctx, conn)
}

// ServerVersion returns the server's version as reported by SHOW server_version.
func (p *Pool) ServerVersion(ctx context.Context) (*semver.Version, error) {
	var raw string
	if err := p.pool.QueryRow(ctx, "SHOW server_version").Scan(&raw); err != nil {
		return nil, oops.Code(CodeVersionFailed).With("service", p.service).Wrap(err)
	}
	return ParseServerVersion(raw)
}

// ParseServerVersion parses values like "16.2" or "15.6 (Debian 15.6-1)".
func ParseServerVersion(raw string) (*semver.Version, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, oops.Code(CodeVersionFailed).Errorf("empty server version")
	}
	v, err := semver.NewVersion(fields[0])
	if err != nil {
		return nil, oops.Code(CodeVersionFailed).With("server_version", raw).Wrap(err)
	}
	return v, nil
}

// CheckServerVersion fails when v does not satisfy constraint. An empty
// constraint accepts every version.
func CheckServerVersion(v *semver.Version, constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return oops.Code(CodeVersionUnsupported).With("constraint", constraint).Wrap(err)
	}
	if !c.Check(v) {
		return oops.Code(CodeVersionUnsupported).
			With("constraint", constraint).
			With("server_version", v.String()).
			Errorf("server version %s does not satisfy %s", v, constraint)
	}
	return nil
}

// Retryable reports whether a connection error may succeed on a later attempt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		switch oopsErr.Code() {
		case CodeAuthFailed, CodeDatabaseNotFound:
			return false
		}
	}
	return true
}

// classify attaches a code derived from the server's SQLSTATE, falling
// back to fallback.
func classify(err error, service, fallback string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidPassword, pgerrcode.InvalidAuthorizationSpecification:
			return oops.Code(CodeAuthFailed).
				With("service", service).
				With("sqlstate", pgErr.Code).
				Wrap(err)
		case pgerrcode.InvalidCatalogName:
			return oops.Code(CodeDatabaseNotFound).
				With("service", service).
				With("sqlstate", pgErr.Code).
				Wrap(err)
		}
	}
	return oops.Code(fallback).With("service", service).Wrap(err)
}

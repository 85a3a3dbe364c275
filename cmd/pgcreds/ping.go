// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/pgcreds/internal/database"
)

// addConnectFlags registers the flags that tune database connections.
// Their values reach the command through config.Load.
func addConnectFlags(cmd *cobra.Command) {
	cmd.Flags().String("scheme", database.DefaultScheme, "URL scheme (postgres or postgresql)")
	cmd.Flags().Uint64("attempts", database.DefaultAttempts, "connection attempts before giving up")
	cmd.Flags().String("backoff", database.DefaultBackoff.String(), "base delay between connection attempts")
	cmd.Flags().String("min-server-version", "", "semver constraint the server version must satisfy (e.g. \">= 14\")")
}

func newPingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping <service>",
		Short: "Connect to a service and report its server version",
		Long: `Resolve a service, connect with the resolved credential, and report
the server version. Fails when the version does not satisfy
--min-server-version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPing(cmd.Context(), cmd, args[0])
		},
	}

	addConnectFlags(cmd)

	return cmd
}

func (a *app) runPing(ctx context.Context, cmd *cobra.Command, serviceName string) error {
	checkID := ulid.Make().String()
	logger := a.logger.With("check_id", checkID, "service", serviceName)

	cred, err := a.resolve(serviceName)
	if err != nil {
		return err
	}
	opts, err := a.cfg.ConnectOptions()
	if err != nil {
		return err
	}

	logger.Debug("connecting", "credential", cred, "attempts", opts.Attempts)
	pool, err := database.Connect(ctx, cred, opts)
	if err != nil {
		return err
	}
	defer pool.Close()

	v, err := pool.ServerVersion(ctx)
	if err != nil {
		return err
	}
	if err := database.CheckServerVersion(v, a.cfg.Connect.MinServerVersion); err != nil {
		return err
	}

	logger.Info("ping succeeded", "server_version", v.String())
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok %s PostgreSQL %s\n", database.ConnString(opts.Scheme, cred), v)
	return oops.Wrap(err)
}

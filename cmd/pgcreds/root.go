// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/pgcreds/internal/config"
	"github.com/holomush/pgcreds/internal/credential"
	"github.com/holomush/pgcreds/internal/logging"
	"github.com/holomush/pgcreds/internal/xdg"
)

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCmd creates the root command for the pgcreds CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "pgcreds",
		Short: "Resolve PostgreSQL service names into connection credentials",
		Long: `pgcreds reads a libpq-style service file (~/.pg_service.conf) and
password file (~/.pgpass) to turn a service name into a full connection
credential, and can use that credential to reach the database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/pgcreds/config.yaml)")
	flags.String("service-file", "", "service file path (default: ~/.pg_service.conf)")
	flags.String("pass-file", "", "password file path (default: ~/.pgpass)")
	flags.String("log-format", config.DefaultLogFormat, "log format (json or text)")
	flags.String("log-level", config.DefaultLogLevel, "minimum log level (debug, info, warn or error)")

	cmd.AddCommand(newResolveCmd(a))
	cmd.AddCommand(newDSNCmd(a))
	cmd.AddCommand(newServicesCmd(a))
	cmd.AddCommand(newPingCmd(a))
	cmd.AddCommand(newProbeCmd(a))

	return cmd
}

// init loads configuration and installs the logger. An explicit --config
// must exist; the default location is optional.
func (a *app) init(cmd *cobra.Command) error {
	path, required := a.configFile, true
	if path == "" {
		required = false
		if p, err := xdg.ConfigFile(); err == nil {
			path = p
		}
	}

	cfg, err := config.Load(path, required, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	a.logger = logging.SetDefault(logging.Options{
		Service: "pgcreds",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	})
	return nil
}

// resolver returns a Resolver over the configured files.
func (a *app) resolver() (*credential.Resolver, error) {
	if a.cfg == nil {
		return nil, oops.Code(config.CodeConfigInvalid).Errorf("configuration not loaded")
	}
	return credential.NewFileResolver(a.cfg.ServiceFile, a.cfg.PassFile)
}

// resolve resolves serviceName against the configured files.
func (a *app) resolve(serviceName string) (credential.Credential, error) {
	r, err := a.resolver()
	if err != nil {
		return credential.Credential{}, err
	}
	return r.Resolve(serviceName)
}

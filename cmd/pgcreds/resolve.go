// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/pgcreds/internal/credential"
)

// Output formats accepted by resolve -o.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		output       string
		showPassword bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <service>",
		Short: "Print the credential for a service",
		Long: `Resolve a service name into host, port, database, user and password.

The text format prints libpq environment assignments suitable for eval.
The password is only printed with --show-password.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			a.logger.Debug("resolved service", "credential", cred)
			return writeCredential(cmd.OutOrStdout(), cred, output, showPassword)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json or yaml)")
	cmd.Flags().BoolVar(&showPassword, "show-password", false, "include the password in the output")

	return cmd
}

func writeCredential(w io.Writer, cred credential.Credential, format string, showPassword bool) error {
	switch format {
	case outputText:
		return writeEnv(w, cred, showPassword)
	case outputJSON:
		if !showPassword {
			cred = cred.Redacted()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cred); err != nil {
			return oops.With("format", format).Wrap(err)
		}
		return nil
	case outputYAML:
		if !showPassword {
			cred = cred.Redacted()
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cred); err != nil {
			return oops.With("format", format).Wrap(err)
		}
		return oops.Wrap(enc.Close())
	default:
		return oops.Code("INVALID_OUTPUT").
			With("format", format).
			Errorf("output must be one of %s, %s or %s, got %q", outputText, outputJSON, outputYAML, format)
	}
}

func writeEnv(w io.Writer, cred credential.Credential, showPassword bool) error {
	vars := [][2]string{
		{"PGSERVICE", cred.Service},
		{"PGHOST", cred.Host},
		{"PGPORT", strconv.Itoa(cred.Port)},
		{"PGDATABASE", cred.DBName},
		{"PGUSER", cred.User},
	}
	if showPassword {
		vars = append(vars, [2]string{"PGPASSWORD", cred.Password})
	}
	if cred.SSLMode != "" {
		vars = append(vars, [2]string{"PGSSLMODE", cred.SSLMode})
	}

	for _, kv := range vars {
		if _, err := fmt.Fprintf(w, "%s=%s\n", kv[0], shellQuote(kv[1])); err != nil {
			return oops.Wrap(err)
		}
	}
	return nil
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

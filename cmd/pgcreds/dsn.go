// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/pgcreds/internal/database"
)

func newDSNCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dsn <service>",
		Short: "Print the connection URL for a service",
		Long: `Print <scheme>://<host>:<port>/<dbname> for a service. User and
password are never included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			if _, err := cred.Mode(); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), database.ConnString(a.cfg.Scheme, cred))
			return oops.Wrap(err)
		},
	}

	cmd.Flags().String("scheme", database.DefaultScheme, "URL scheme (postgres or postgresql)")

	return cmd
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newServicesCmd(a *app) *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "services",
		Short: "List the services defined in the service file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var pattern glob.Glob
			if match != "" {
				g, err := glob.Compile(match)
				if err != nil {
					return oops.Code("INVALID_PATTERN").With("pattern", match).Wrap(err)
				}
				pattern = g
			}

			r, err := a.resolver()
			if err != nil {
				return err
			}
			names, err := r.Services()
			if err != nil {
				return err
			}

			for _, name := range names {
				if pattern != nil && !pattern.Match(name) {
					continue
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return oops.Wrap(err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "only list services matching this glob")

	return cmd
}

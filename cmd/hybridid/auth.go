// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/holomush/hybridid/internal/api"
	"github.com/holomush/hybridid/internal/identity"
)

func newAuthCmd(a *app) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate a user",
		Long: `Reads a password from standard input and authenticates the user,
printing the user record and the store that served it. Any failure
reports only "invalid user or password".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAuth(cmd, userID)
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "ID of the user to authenticate")
	_ = cmd.MarkFlagRequired("user-id") //nolint:errcheck // flag is defined above

	return cmd
}

func (a *app) runAuth(cmd *cobra.Command, userID string) error {
	password, err := readPassword(a.deps.Stdin)
	if err != nil {
		return err
	}

	return a.withBackend(cmd, func(ctx context.Context, b *identity.Backend) error {
		res, err := b.Authenticate(ctx, userID, password)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), api.NewAuthView(res))
	})
}

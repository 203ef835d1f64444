// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/hybridid/internal/api"
	"github.com/holomush/hybridid/internal/identity"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Look up and manage users",
	}

	cmd.AddCommand(newUserGetCmd(a))
	cmd.AddCommand(newUserFindCmd(a))
	cmd.AddCommand(newUserListCmd(a))
	cmd.AddCommand(newUserAddCmd(a))

	return cmd
}

func newUserGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a relational user by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *identity.Backend) error {
				u, err := b.GetUser(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), api.NewUserView(u))
			})
		},
	}
}

func newUserFindCmd(a *app) *cobra.Command {
	var domainID string

	cmd := &cobra.Command{
		Use:   "find NAME",
		Short: "Find a user by name in the relational store, then the directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *identity.Backend) error {
				u, err := b.GetUserByName(ctx, args[0], domainID)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), api.NewUserView(u))
			})
		},
	}

	cmd.Flags().StringVar(&domainID, "domain", identity.DefaultDomainID, "domain to search")

	return cmd
}

// userListConfig holds flags for the user list command.
type userListConfig struct {
	filters       []string
	caseSensitive bool
	limit         int
}

func newUserListCmd(a *app) *cobra.Command {
	cfg := &userListConfig{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List relational users",
		Long: `Lists users of the relational store. Directory users are not listed.
Filters take the form field:comparator:value, for example
name:startswith:al. Fields are id, name, domain_id and enabled;
comparators are equals, contains, startswith and endswith.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hints, err := cfg.hints()
			if err != nil {
				return err
			}
			return a.withBackend(cmd, func(ctx context.Context, b *identity.Backend) error {
				users, err := b.ListUsers(ctx, hints)
				if err != nil {
					return err
				}
				views := make([]api.UserView, 0, len(users))
				for _, u := range users {
					views = append(views, api.NewUserView(u))
				}
				return writeJSON(cmd.OutOrStdout(), views)
			})
		},
	}

	cmd.Flags().StringArrayVar(&cfg.filters, "filter", nil, "filter as field:comparator:value (repeatable)")
	cmd.Flags().BoolVar(&cfg.caseSensitive, "case-sensitive", false, "match filters case-sensitively")
	cmd.Flags().IntVar(&cfg.limit, "limit", 0, "maximum number of users, 0 for no limit")

	return cmd
}

func (cfg *userListConfig) hints() (identity.ListHints, error) {
	return identity.ParseHints(cfg.filters, cfg.caseSensitive, cfg.limit)
}

// userAddConfig holds flags for the user add command.
type userAddConfig struct {
	id         string
	domainID   string
	email      string
	disabled   bool
	noPassword bool
}

func newUserAddCmd(a *app) *cobra.Command {
	cfg := &userAddConfig{}

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a relational user",
		Long: `Creates a user in the relational store. The password is read from
standard input and stored as an argon2id hash. With --no-password the
user has no stored credential and authenticates against the directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUserAdd(cmd, args[0], cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.id, "id", "", "user ID (default: a new ULID)")
	cmd.Flags().StringVar(&cfg.domainID, "domain", identity.DefaultDomainID, "domain of the user")
	cmd.Flags().StringVar(&cfg.email, "email", "", "email address")
	cmd.Flags().BoolVar(&cfg.disabled, "disabled", false, "create the user disabled")
	cmd.Flags().BoolVar(&cfg.noPassword, "no-password", false, "store no password")

	return cmd
}

func (a *app) runUserAdd(cmd *cobra.Command, name string, cfg *userAddConfig) error {
	if strings.TrimSpace(name) == "" {
		return oops.Code("INVALID_USER").Errorf("user name is required")
	}

	user := &identity.User{
		ID:       cfg.id,
		Name:     name,
		DomainID: cfg.domainID,
		Enabled:  !cfg.disabled,
	}
	if user.ID == "" {
		user.ID = ulid.Make().String()
	}
	if cfg.email != "" {
		user.Extra = map[string]any{"email": cfg.email}
	}

	if !cfg.noPassword {
		password, err := readPassword(a.deps.Stdin)
		if err != nil {
			return err
		}
		if password == "" {
			return oops.Code("INVALID_USER").Errorf("password is empty (use --no-password for directory users)")
		}
		hash, err := identity.NewHasher().Hash(password)
		if err != nil {
			return err
		}
		user.Password = &identity.Credential{Hash: hash}
	}

	dbCfg, logger, err := a.load(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	users, err := a.deps.StoreFactory(ctx, dbCfg.Database)
	if err != nil {
		return err
	}
	defer users.Close()

	if err := users.Create(ctx, user); err != nil {
		return err
	}
	logger.Info("user created", "user_id", user.ID, "domain_id", user.DomainID)

	return writeJSON(cmd.OutOrStdout(), api.NewUserView(user))
}

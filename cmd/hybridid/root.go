// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/hybridid/internal/config"
	"github.com/holomush/hybridid/internal/identity"
	"github.com/holomush/hybridid/internal/logging"
)

const serviceName = "hybridid"

// app carries state shared by all subcommands.
type app struct {
	deps       *Deps
	configFile string
}

// NewRootCmd creates the root command for the hybridid CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&Deps{})
}

func newRootCmd(deps *Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "hybridid",
		Short: "hybridid - hybrid SQL and LDAP identity backend",
		Long: `hybridid verifies credentials and resolves users against a relational
user store first, falling back to an LDAP directory for users the
relational store cannot authenticate.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file path")
	pf.String("log-format", def.Log.Format, "log format (json or text)")
	pf.String("log-level", def.Log.Level, "log level (debug, info, warn, error)")
	pf.String("database-url", "", "PostgreSQL URL (default $"+config.EnvDatabaseURL+")")
	pf.String("directory-url", "", "LDAP URL of the fallback directory")
	pf.String("metrics-addr", def.Metrics.Addr, "metrics and health listen address, empty to disable")
	pf.String("api-addr", def.API.Addr, "identity API listen address for serve, empty to disable")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newAuthCmd(a))
	cmd.AddCommand(newUserCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// load reads the configuration for cmd and builds its logger.
func (a *app) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := a.deps.ConfigLoader.Load(a.configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := logging.Setup(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	return cfg, logger, nil
}

// newBackend builds the identity backend over an open store. A nil
// recorder keeps the backend default.
func (a *app) newBackend(cfg *config.Config, logger *slog.Logger, users UserStore, rec identity.Recorder) (*identity.Backend, error) {
	if cfg.Directory.URL == "" {
		return nil, oops.Code("DIRECTORY_NOT_CONFIGURED").
			Errorf("directory.url is required (set it in the config file or with --directory-url)")
	}
	dirCfg, err := cfg.Directory.LDAP()
	if err != nil {
		return nil, err
	}
	dir, err := a.deps.DirectoryFactory(dirCfg, logger)
	if err != nil {
		return nil, oops.Code("DIRECTORY_INIT_FAILED").Wrap(err)
	}

	opts := []identity.Option{identity.WithLogger(logger)}
	if rec != nil {
		opts = append(opts, identity.WithRecorder(rec))
	}
	backend, err := identity.NewBackend(users, dir, identity.NewHasher(), opts...)
	if err != nil {
		return nil, oops.Code("BACKEND_INIT_FAILED").Wrap(err)
	}
	return backend, nil
}

// withBackend opens the store, builds the backend and runs fn.
func (a *app) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *identity.Backend) error) error {
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	users, err := a.deps.StoreFactory(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer users.Close()

	backend, err := a.newBackend(cfg, logger, users, nil)
	if err != nil {
		return err
	}
	return fn(ctx, backend)
}

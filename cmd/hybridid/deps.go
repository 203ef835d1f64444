// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/hybridid/internal/api"
	"github.com/holomush/hybridid/internal/config"
	"github.com/holomush/hybridid/internal/identity"
	"github.com/holomush/hybridid/internal/identity/ldap"
	"github.com/holomush/hybridid/internal/identity/postgres"
	"github.com/holomush/hybridid/internal/observability"
	"github.com/holomush/hybridid/internal/store"
)

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// StoreFactory opens the relational user store.
	// Default: store.OpenPool wrapped in postgres.NewUserStore
	StoreFactory func(ctx context.Context, cfg config.DatabaseConfig) (UserStore, error)

	// DirectoryFactory creates the directory client.
	// Default: ldap.New
	DirectoryFactory func(cfg ldap.Config, logger *slog.Logger) (identity.Directory, error)

	// MigratorFactory creates a schema migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// APIServerFactory creates the identity API server. reg may be nil.
	// Default: api.NewServer
	APIServerFactory func(addr string, backend api.Backend, logger *slog.Logger, reg prometheus.Registerer) APIServer

	// ConfigLoader reads the configuration.
	// Default: config.Loader{} with os.Getenv
	ConfigLoader config.Loader

	// Stdin supplies passwords. Default: os.Stdin
	Stdin io.Reader
}

// UserStore is the relational store as used by the commands.
type UserStore interface {
	identity.UserStore
	Create(ctx context.Context, user *identity.User) error
	Ping(ctx context.Context) error
	Close()
}

// Migrator interface wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
	Registerer() prometheus.Registerer
}

// APIServer interface wraps the methods used from api.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// pooledStore closes its pool along with the store.
type pooledStore struct {
	*postgres.UserStore
	close func()
}

func (s pooledStore) Close() { s.close() }

func (d *Deps) withDefaults() *Deps {
	out := *d
	if out.StoreFactory == nil {
		out.StoreFactory = func(ctx context.Context, cfg config.DatabaseConfig) (UserStore, error) {
			opts, err := cfg.PoolOptions()
			if err != nil {
				return nil, err
			}
			pool, err := store.OpenPool(ctx, cfg.URL, opts)
			if err != nil {
				return nil, err
			}
			return pooledStore{UserStore: postgres.NewUserStore(pool), close: pool.Close}, nil
		}
	}
	if out.DirectoryFactory == nil {
		out.DirectoryFactory = func(cfg ldap.Config, logger *slog.Logger) (identity.Directory, error) {
			dir, err := ldap.New(cfg, ldap.WithLogger(logger))
			if err != nil {
				return nil, err
			}
			return dir, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			m, err := store.NewMigrator(databaseURL)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, observability.WithLogger(logger))
		}
	}
	if out.APIServerFactory == nil {
		out.APIServerFactory = func(addr string, backend api.Backend, logger *slog.Logger, reg prometheus.Registerer) APIServer {
			return api.NewServer(addr, backend, api.WithLogger(logger), api.WithRegisterer(reg))
		}
	}
	if out.Stdin == nil {
		out.Stdin = os.Stdin
	}
	return &out
}

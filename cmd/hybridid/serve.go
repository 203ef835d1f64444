// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/hybridid/internal/identity"
	"github.com/holomush/hybridid/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the identity API with metrics and health endpoints",
		Long: `Opens the relational store and the directory, then serves the identity
HTTP API on --api-addr and Prometheus metrics with liveness/readiness
probes on --metrics-addr until interrupted. Readiness follows a ping of
the relational store.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	users, err := a.deps.StoreFactory(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer users.Close()

	var (
		obsServer ObservabilityServer
		recorder  identity.Recorder
	)
	if cfg.Metrics.Addr != "" {
		ready := func(ctx context.Context) bool { return users.Ping(ctx) == nil }
		obsServer = a.deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready, logger)
		if m := obsServer.Metrics(); m != nil {
			recorder = m
		}
	}

	backend, err := a.newBackend(cfg, logger, users, recorder)
	if err != nil {
		return err
	}

	if obsServer != nil {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, logger, obsErrChan, "observability")
	}

	var apiServer APIServer
	if cfg.API.Addr != "" {
		var reg prometheus.Registerer
		if obsServer != nil {
			reg = obsServer.Registerer()
		}
		apiServer = a.deps.APIServerFactory(cfg.API.Addr, backend, logger, reg)
		apiErrChan, err := apiServer.Start()
		if err != nil {
			if obsServer != nil {
				stopServer(ctx, logger, obsServer, "observability")
			}
			return oops.Code("API_START_FAILED").With("addr", cfg.API.Addr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, logger, apiErrChan, "api")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("hybridid started")
	logger.Info("identity backend ready",
		"directory_url", cfg.Directory.URL,
		"metrics_addr", cfg.Metrics.Addr,
		"api_addr", cfg.API.Addr,
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if apiServer != nil {
		stopServer(shutdownCtx, logger, apiServer, "api")
	}
	if obsServer != nil {
		stopServer(shutdownCtx, logger, obsServer, "observability")
	}

	logger.Info("shutdown complete")
	return nil
}

type stopper interface {
	Stop(ctx context.Context) error
}

// stopServer stops s and logs any error.
func stopServer(ctx context.Context, logger *slog.Logger, s stopper, serverName string) {
	if err := s.Stop(ctx); err != nil {
		errutil.LogErrorContext(ctx, logger.With("server", serverName), "error stopping server", err)
	}
}

// monitorServerErrors cancels the context when a server reports an error.
// It exits when an error is received, the channel is closed, or the context
// is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			errutil.LogErrorContext(ctx, logger.With("server", serverName), "server error, triggering shutdown", err)
			cancel()
		}
	case <-ctx.Done():
	}
}

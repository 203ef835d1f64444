// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package identity

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/holomush/hybridid/internal/identity"

// Backend is the hybrid identity backend consumed by the identity service.
type Backend struct {
	verifier *CredentialVerifier
	resolver *UserResolver
	tracker  TrustDomainTracker
	tracer   trace.Tracer
}

type backendOptions struct {
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// Option configures a Backend.
type Option func(*backendOptions)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *backendOptions) { o.logger = logger }
}

// WithRecorder sets the metrics recorder. Defaults to NopRecorder.
func WithRecorder(recorder Recorder) Option {
	return func(o *backendOptions) { o.recorder = recorder }
}

// WithTracer sets the tracer. Defaults to the global otel tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *backendOptions) { o.tracer = tracer }
}

// NewBackend composes a Backend from its collaborators.
func NewBackend(store UserStore, directory Directory, passwords PasswordVerifier, opts ...Option) (*Backend, error) {
	o := backendOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	verifier, err := NewCredentialVerifier(store, directory, passwords, o.logger, o.recorder)
	if err != nil {
		return nil, err
	}
	resolver, err := NewUserResolver(store, directory, o.logger, o.recorder)
	if err != nil {
		return nil, err
	}

	return &Backend{
		verifier: verifier,
		resolver: resolver,
		tracer:   o.tracer,
	}, nil
}

// Authenticate verifies the password of the user with userID and reports
// which store served the check. It fails only with ErrAuthenticationFailed.
func (b *Backend) Authenticate(ctx context.Context, userID, password string) (*AuthResult, error) {
	ctx, span := b.tracer.Start(ctx, "identity.Authenticate")
	defer span.End()

	res, err := b.verifier.Authenticate(ctx, userID, password)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	b.tracker.Record(res.Source)
	span.SetAttributes(attribute.String("identity.source", string(res.Source)))
	return res, nil
}

// IsDomainAware reports whether the last successful authentication through
// this backend was served by the relational store. A false result is
// returned once; the next call returns true.
//
// Deprecated: concurrent authentications race on this flag. Use
// AuthResult.Source.
func (b *Backend) IsDomainAware() bool {
	return b.tracker.IsDomainAware()
}

// GetUser returns the relational user with id.
func (b *Backend) GetUser(ctx context.Context, id string) (*User, error) {
	ctx, span := b.tracer.Start(ctx, "identity.GetUser")
	defer span.End()

	u, err := b.resolver.GetUser(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "lookup failed")
	}
	return u, err
}

// GetUserByName returns the user named name in domainID, falling back to
// the directory.
func (b *Backend) GetUserByName(ctx context.Context, name, domainID string) (*User, error) {
	ctx, span := b.tracer.Start(ctx, "identity.GetUserByName")
	defer span.End()

	u, err := b.resolver.GetUserByName(ctx, name, domainID)
	if err != nil {
		span.SetStatus(codes.Error, "lookup failed")
	}
	return u, err
}

// ListUsers returns the relational users matching hints.
func (b *Backend) ListUsers(ctx context.Context, hints ListHints) ([]*User, error) {
	ctx, span := b.tracer.Start(ctx, "identity.ListUsers")
	defer span.End()

	users, err := b.resolver.ListUsers(ctx, hints)
	if err != nil {
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("identity.count", len(users)))
	return users, nil
}

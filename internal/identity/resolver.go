// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// UserResolver fetches users, preferring the relational store.
//
// Directory users and relational users do not share an ID scheme, so the
// directory is consulted by name only. Listings never include directory
// users.
type UserResolver struct {
	store     UserStore
	directory Directory
	logger    *slog.Logger
	recorder  Recorder
}

// NewUserResolver creates a UserResolver. A nil logger uses slog.Default and
// a nil recorder discards events.
func NewUserResolver(store UserStore, directory Directory, logger *slog.Logger, recorder Recorder) (*UserResolver, error) {
	if store == nil {
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("user store is required")
	}
	if directory == nil {
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &UserResolver{
		store:     store,
		directory: directory,
		logger:    logger,
		recorder:  recorder,
	}, nil
}

// GetUser returns the relational user with id.
func (r *UserResolver) GetUser(ctx context.Context, id string) (*User, error) {
	var user *User
	err := r.store.WithReadTx(ctx, func(ctx context.Context, rd UserReader) error {
		u, err := rd.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	switch {
	case errors.Is(err, ErrUserNotFound):
		r.recorder.Lookup(OpGetUser, SourceRelational, OutcomeNotFound)
		return nil, err
	case err != nil:
		r.recorder.Lookup(OpGetUser, SourceRelational, OutcomeError)
		return nil, oops.Code("IDENTITY_LOOKUP_FAILED").
			With("operation", "get user").
			With("user_id", id).
			Wrap(err)
	case user == nil:
		r.recorder.Lookup(OpGetUser, SourceRelational, OutcomeNotFound)
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(ErrUserNotFound)
	}
	r.recorder.Lookup(OpGetUser, SourceRelational, OutcomeSuccess)
	return FilterUser(user), nil
}

// GetUserByName returns the relational user with name in domainID, or the
// directory user with that name when the relational store has none.
func (r *UserResolver) GetUserByName(ctx context.Context, name, domainID string) (*User, error) {
	user, err := r.store.GetUserByName(ctx, name, domainID)
	if err == nil && user != nil {
		r.recorder.Lookup(OpGetUserByName, SourceRelational, OutcomeSuccess)
		return FilterUser(user), nil
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		r.recorder.Lookup(OpGetUserByName, SourceRelational, OutcomeError)
		return nil, oops.Code("IDENTITY_LOOKUP_FAILED").
			With("operation", "get user by name").
			With("name", name).
			With("domain_id", domainID).
			Wrap(err)
	}

	dirUser, err := r.directory.GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			r.recorder.Lookup(OpGetUserByName, SourceDirectory, OutcomeNotFound)
		} else {
			r.recorder.Lookup(OpGetUserByName, SourceDirectory, OutcomeError)
			r.logger.WarnContext(ctx, "directory lookup failed", "name", name, "error", err)
		}
		return nil, nameNotFound(name, domainID)
	}
	if dirUser == nil {
		r.recorder.Lookup(OpGetUserByName, SourceDirectory, OutcomeNotFound)
		return nil, nameNotFound(name, domainID)
	}

	r.recorder.Lookup(OpGetUserByName, SourceDirectory, OutcomeSuccess)
	return FilterUser(dirUser), nil
}

func nameNotFound(name, domainID string) error {
	return oops.Code("USER_NOT_FOUND").
		With("name", name).
		With("domain_id", domainID).
		Wrap(ErrUserNotFound)
}

// ListUsers returns the relational users matching hints.
func (r *UserResolver) ListUsers(ctx context.Context, hints ListHints) ([]*User, error) {
	if err := hints.Validate(); err != nil {
		return nil, err
	}
	users, err := r.store.ListUsers(ctx, hints)
	if err != nil {
		r.recorder.Lookup(OpListUsers, SourceRelational, OutcomeError)
		return nil, oops.Code("IDENTITY_LOOKUP_FAILED").With("operation", "list users").Wrap(err)
	}
	out := make([]*User, 0, len(users))
	for _, u := range users {
		out = append(out, FilterUser(u))
	}
	r.recorder.Lookup(OpListUsers, SourceRelational, OutcomeSuccess)
	return out, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package identity

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// CredentialVerifier checks a user's password against the relational store
// and falls back to a directory bind.
type CredentialVerifier struct {
	store     UserStore
	directory Directory
	passwords PasswordVerifier
	logger    *slog.Logger
	recorder  Recorder
}

// NewCredentialVerifier creates a CredentialVerifier. A nil logger uses
// slog.Default and a nil recorder discards events.
func NewCredentialVerifier(store UserStore, directory Directory, passwords PasswordVerifier, logger *slog.Logger, recorder Recorder) (*CredentialVerifier, error) {
	if store == nil {
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("user store is required")
	}
	if directory == nil {
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("directory is required")
	}
	if passwords == nil {
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("password verifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &CredentialVerifier{
		store:     store,
		directory: directory,
		passwords: passwords,
		logger:    logger,
		recorder:  recorder,
	}, nil
}

// Authenticate verifies password for the user with userID.
//
// The stored hash is tried first. If the user has no usable hash, or the
// hash does not match, the password is checked by binding to the directory
// as the user's name. Every failure returns ErrAuthenticationFailed.
func (v *CredentialVerifier) Authenticate(ctx context.Context, userID, password string) (*AuthResult, error) {
	log := v.logger.With("attempt_id", ulid.Make().String(), "user_id", userID)

	if password == "" {
		log.DebugContext(ctx, "authentication rejected", "reason", "empty password")
		v.recorder.AuthAttempt("", OutcomeFailure)
		return nil, ErrAuthenticationFailed
	}

	user, err := v.lookup(ctx, userID)
	if err != nil {
		log.DebugContext(ctx, "authentication rejected", "reason", "user lookup failed", "error", err)
		v.recorder.AuthAttempt("", OutcomeFailure)
		return nil, ErrAuthenticationFailed
	}

	if v.matchesStored(ctx, log, user, password) {
		log.DebugContext(ctx, "authenticated user", "source", SourceRelational)
		v.recorder.AuthAttempt(SourceRelational, OutcomeSuccess)
		return &AuthResult{User: FilterUser(user), Source: SourceRelational}, nil
	}

	if err := v.bind(ctx, log, user.Name, password); err != nil {
		log.DebugContext(ctx, "authentication rejected", "reason", "directory bind failed", "error", err)
		v.recorder.AuthAttempt("", OutcomeFailure)
		return nil, ErrAuthenticationFailed
	}

	log.DebugContext(ctx, "authenticated user", "source", SourceDirectory)
	v.recorder.AuthAttempt(SourceDirectory, OutcomeSuccess)
	return &AuthResult{User: FilterUser(user), Source: SourceDirectory}, nil
}

// lookup reads the user inside a read transaction that ends before any
// directory traffic starts.
func (v *CredentialVerifier) lookup(ctx context.Context, userID string) (*User, error) {
	var user *User
	err := v.store.WithReadTx(ctx, func(ctx context.Context, r UserReader) error {
		u, err := r.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", userID).Wrap(ErrUserNotFound)
	}
	return user, nil
}

// matchesStored reports whether password matches the user's stored hash.
// Missing, malformed and mismatching material all report false.
func (v *CredentialVerifier) matchesStored(ctx context.Context, log *slog.Logger, user *User, password string) bool {
	if !user.Password.IsUsable() {
		return false
	}
	ok, err := v.passwords.Verify(password, user.Password.Hash)
	if err != nil {
		log.DebugContext(ctx, "stored hash unusable, trying directory", "error", err)
		return false
	}
	return ok
}

// bind opens and releases an end-user directory session for name.
func (v *CredentialVerifier) bind(ctx context.Context, log *slog.Logger, name, password string) error {
	ref, err := v.directory.ReferenceForName(ctx, name)
	if err != nil {
		v.recorder.DirectoryBind(OutcomeError)
		return oops.Code("DIRECTORY_REFERENCE_FAILED").Wrap(err)
	}

	session, err := v.directory.OpenSession(ctx, ref, password, PurposeEndUserAuth)
	if err != nil {
		v.recorder.DirectoryBind(OutcomeFailure)
		return oops.Code("DIRECTORY_BIND_FAILED").Wrap(err)
	}
	if session == nil {
		v.recorder.DirectoryBind(OutcomeError)
		return oops.Code("DIRECTORY_BIND_FAILED").Errorf("directory returned no session")
	}
	defer func() {
		if err := session.Release(); err != nil {
			log.WarnContext(ctx, "failed to release directory session", "error", err)
		}
	}()

	v.recorder.DirectoryBind(OutcomeSuccess)
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package identity

import "context"

// UserReader reads users inside a read transaction.
type UserReader interface {
	// GetUserByID returns the user with the given ID.
	// Returns an error wrapping ErrUserNotFound if no such user exists.
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// UserStore is the relational store of canonical user records.
type UserStore interface {
	// WithReadTx runs fn inside a read-only transaction. The transaction is
	// always ended before WithReadTx returns.
	WithReadTx(ctx context.Context, fn func(ctx context.Context, r UserReader) error) error

	// GetUserByName returns the user with the given name in domainID.
	// Returns an error wrapping ErrUserNotFound if no such user exists.
	GetUserByName(ctx context.Context, name, domainID string) (*User, error)

	// ListUsers returns the users matching hints.
	ListUsers(ctx context.Context, hints ListHints) ([]*User, error)
}

// DirectoryRef is a directory identity reference (a distinguished name).
type DirectoryRef string

// SessionPurpose tells the directory why a session is opened.
type SessionPurpose int

// Session purposes.
const (
	// PurposeEndUserAuth binds as the end user; the bind is the password check.
	PurposeEndUserAuth SessionPurpose = iota + 1
	// PurposeLookup binds with the service account.
	PurposeLookup
)

// DirectorySession is a live bind to the directory.
type DirectorySession interface {
	// Release unbinds the session. Calls after the first are no-ops.
	Release() error
}

// Directory is the fallback directory service.
type Directory interface {
	// ReferenceForName derives the directory reference of the user name.
	ReferenceForName(ctx context.Context, name string) (DirectoryRef, error)

	// OpenSession binds to the directory as ref with password. A bind
	// rejected by the server returns an error and no session.
	OpenSession(ctx context.Context, ref DirectoryRef, password string, purpose SessionPurpose) (DirectorySession, error)

	// GetUserByName looks up a directory user by name.
	// Returns an error wrapping ErrUserNotFound if no entry matches.
	GetUserByName(ctx context.Context, name string) (*User, error)
}

// PasswordVerifier checks a password against stored hash material.
type PasswordVerifier interface {
	// Verify returns (true, nil) on match, (false, nil) on mismatch, or an
	// error if the hash is malformed or of an unsupported scheme.
	Verify(password, hash string) (bool, error)
}

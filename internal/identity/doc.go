// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package identity implements a hybrid identity backend on top of a
// relational user store and a fallback directory service.
//
// # Authentication
//
// Credentials are checked against the relational store first. Users whose
// record carries no usable password hash, or whose hash does not match, are
// checked by binding to the directory as that user. Every failing path
// returns ErrAuthenticationFailed so callers cannot tell which stage failed.
//
// Authenticate returns an AuthResult that names the store that served the
// request. The legacy one-shot IsDomainAware accessor is kept on Backend for
// callers that still read it.
//
// # Resolution
//
//   - GetUser looks up by ID in the relational store only
//   - GetUserByName falls back to the directory when the relational store misses
//   - ListUsers returns relational users only
//
// Records returned by any operation pass through FilterUser.
package identity

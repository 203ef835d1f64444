// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package identity

import "errors"

// ErrUserNotFound is returned when no store holds a matching user.
// Store implementations wrap it with lookup context; test with errors.Is.
var ErrUserNotFound = errors.New("user not found")

// ErrAuthenticationFailed is the only error Authenticate returns.
// It is returned unwrapped on every failing path.
var ErrAuthenticationFailed = errors.New("invalid user or password")

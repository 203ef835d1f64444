// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package ldap implements identity.Directory on an LDAP server.
//
// A successful simple bind as the user's entry is the password check.
// Lookups bind with the configured service account. Entries map to
// identity.User by the configured attributes and never carry credential
// material.
package ldap

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements the relational identity.UserStore on
// PostgreSQL.
//
// Reads that feed authentication run in a read-only transaction that is
// always ended before WithReadTx returns, so no transaction is held open
// across directory traffic.
package postgres

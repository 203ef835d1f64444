// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// ErrUserExists is returned by Create when the id or the name within the
// domain is already taken.
var ErrUserExists = errors.New("user already exists")

// classify wraps a database error with code, unless the error shows the
// database itself is unreachable, in which case STORE_UNAVAILABLE is used.
func classify(err error, code string) oops.OopsErrorBuilder {
	if unavailable(err) {
		return oops.Code("STORE_UNAVAILABLE")
	}
	return oops.Code(code)
}

func unavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code) ||
			pgerrcode.IsInsufficientResources(pgErr.Code)
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

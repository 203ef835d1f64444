// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/hybridid/internal/identity"
)

// Pool is the subset of *pgxpool.Pool used by UserStore.
// pgxmock.PgxPoolIface satisfies it too.
type Pool interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// querier abstracts row lookups for both the pool and a pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, name, domain_id, enabled, password_hash, extra`

// UserStore implements identity.UserStore using PostgreSQL.
type UserStore struct {
	pool Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool Pool) *UserStore {
	return &UserStore{pool: pool}
}

// WithReadTx runs fn in a read-only transaction. The transaction is
// committed when fn succeeds and rolled back when it fails or panics.
func (s *UserStore) WithReadTx(ctx context.Context, fn func(ctx context.Context, r identity.UserReader) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return classify(err, "TX_BEGIN_FAILED").With("operation", "begin read tx").Wrap(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx) //nolint:errcheck // the panic is what matters
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx) //nolint:errcheck // fn's error is what matters
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = classify(cerr, "TX_COMMIT_FAILED").With("operation", "commit read tx").Wrap(cerr)
		}
	}()

	return fn(ctx, txReader{q: tx})
}

// GetUserByID returns the user with id outside of any transaction.
func (s *UserStore) GetUserByID(ctx context.Context, id string) (*identity.User, error) {
	return getUserByID(ctx, s.pool, id)
}

// GetUserByName returns the user whose name matches name case-insensitively
// within domainID.
func (s *UserStore) GetUserByName(ctx context.Context, name, domainID string) (*identity.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE domain_id = $1 AND lower(name) = lower($2)
	`, domainID, name)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("name", name).
			With("domain_id", domainID).
			Wrap(identity.ErrUserNotFound)
	}
	if err != nil {
		return nil, classify(err, "USER_GET_BY_NAME_FAILED").
			With("operation", "get user by name").
			With("name", name).
			With("domain_id", domainID).
			Wrap(err)
	}
	return user, nil
}

// ListUsers returns the users matching hints ordered by id.
func (s *UserStore) ListUsers(ctx context.Context, hints identity.ListHints) ([]*identity.User, error) {
	if err := hints.Validate(); err != nil {
		return nil, err
	}
	query, args := buildListQuery(hints)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "USER_LIST_FAILED").With("operation", "list users").Wrap(err)
	}
	defer rows.Close()

	users := []*identity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(err, "USER_LIST_FAILED").With("operation", "scan user").Wrap(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "USER_LIST_FAILED").With("operation", "iterate users").Wrap(err)
	}
	return users, nil
}

// Create stores a new user. The credential, if any, must already be hashed.
func (s *UserStore) Create(ctx context.Context, user *identity.User) error {
	extra := user.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "marshal extra").
			Wrap(err)
	}

	var hash *string
	if user.Password.IsUsable() {
		hash = &user.Password.Hash
	}

	domainID := user.DomainID
	if domainID == "" {
		domainID = identity.DefaultDomainID
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, name, domain_id, enabled, password_hash, extra)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Name, domainID, user.Enabled, hash, extraJSON)
	if isUniqueViolation(err) {
		return oops.Code("USER_EXISTS").
			With("id", user.ID).
			With("name", user.Name).
			With("domain_id", domainID).
			Wrap(ErrUserExists)
	}
	if err != nil {
		return classify(err, "USER_CREATE_FAILED").
			With("operation", "insert user").
			With("id", user.ID).
			Wrap(err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *UserStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return oops.Code("STORE_UNAVAILABLE").With("operation", "ping").Wrap(err)
	}
	return nil
}

// txReader reads users through a transaction.
type txReader struct {
	q querier
}

func (r txReader) GetUserByID(ctx context.Context, id string) (*identity.User, error) {
	return getUserByID(ctx, r.q, id)
}

func getUserByID(ctx context.Context, q querier, id string) (*identity.User, error) {
	row := q.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(identity.ErrUserNotFound)
	}
	if err != nil {
		return nil, classify(err, "USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return user, nil
}

// scanUser scans a single row into a User.
// Scan errors, pgx.ErrNoRows included, are returned unwrapped.
func scanUser(row pgx.Row) (*identity.User, error) {
	var (
		u         identity.User
		hash      *string
		extraJSON []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &u.DomainID, &u.Enabled, &hash, &extraJSON); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with lookup context
	}
	if hash != nil && *hash != "" {
		u.Password = &identity.Credential{Hash: *hash}
	}
	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &u.Extra); err != nil {
			return nil, oops.Code("USER_INVALID_EXTRA").
				With("operation", "unmarshal extra").
				With("id", u.ID).
				Wrap(err)
		}
	}
	return &u, nil
}

var filterColumns = map[string]string{
	identity.FieldID:       "id",
	identity.FieldName:     "name",
	identity.FieldDomainID: "domain_id",
	identity.FieldEnabled:  "enabled",
}

// buildListQuery compiles validated hints into a parameterized query.
// Column names come only from filterColumns.
func buildListQuery(hints identity.ListHints) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range hints.Filters {
		col := filterColumns[f.Field]
		if f.Field == identity.FieldEnabled {
			conds = append(conds, col+" = "+next(f.Value == "true"))
			continue
		}
		if f.Comparator == identity.CompareEquals {
			if f.CaseSensitive {
				conds = append(conds, col+" = "+next(f.Value))
			} else {
				conds = append(conds, "lower("+col+") = lower("+next(f.Value)+")")
			}
			continue
		}
		op := "ILIKE"
		if f.CaseSensitive {
			op = "LIKE"
		}
		conds = append(conds, col+" "+op+" "+next(likePattern(f.Comparator, f.Value)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + userColumns + " FROM users")
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY id")
	if hints.Limit > 0 {
		b.WriteString(" LIMIT " + next(hints.Limit))
	}
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(cmp identity.Comparator, value string) string {
	v := likeEscaper.Replace(value)
	switch cmp {
	case identity.CompareStartsWith:
		return v + "%"
	case identity.CompareEndsWith:
		return "%" + v
	default:
		return "%" + v + "%"
	}
}

// Compile-time interface check.
var _ identity.UserStore = (*UserStore)(nil)

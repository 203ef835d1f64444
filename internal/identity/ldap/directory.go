// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ldap

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/hybridid/internal/identity"
)

// ErrInvalidCredentials is wrapped by OpenSession when the server rejects
// the bind.
var ErrInvalidCredentials = errors.New("directory rejected credentials")

// ErrNameNotAllowed is returned for names outside Config.AllowedNames.
var ErrNameNotAllowed = errors.New("name not allowed in directory")

// Directory implements identity.Directory.
type Directory struct {
	cfg     Config
	allowed []glob.Glob
	dial    Dialer
	logger  *slog.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithDialer replaces the go-ldap dialer.
func WithDialer(dial Dialer) Option {
	return func(d *Directory) { d.dial = dial }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) { d.logger = logger }
}

// New creates a Directory. No connection is made until first use.
func New(cfg Config, opts ...Option) (*Directory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	allowed, err := compileNames(cfg.AllowedNames)
	if err != nil {
		return nil, err
	}

	d := &Directory{
		cfg:     cfg,
		allowed: allowed,
		dial:    DialURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ReferenceForName returns the DN of the user entry for name. With a
// one-level scope the DN is derived from the ID attribute without a round
// trip; with a subtree scope the entry is searched for.
func (d *Directory) ReferenceForName(ctx context.Context, name string) (identity.DirectoryRef, error) {
	if err := d.checkName(name); err != nil {
		return "", err
	}
	if d.cfg.Scope == ScopeOneLevel {
		return identity.DirectoryRef(d.cfg.IDAttribute + "=" + goldap.EscapeDN(name) + "," + d.cfg.UserTreeDN), nil
	}

	entry, err := d.searchOne(ctx, d.attrFilter(d.cfg.IDAttribute, name), nil)
	if err != nil {
		return "", oops.With("operation", "resolve dn").With("name", name).Wrap(err)
	}
	return identity.DirectoryRef(entry.DN), nil
}

// OpenSession binds to the directory as ref. End-user sessions never bind
// with an empty password, since servers treat that as an anonymous bind
// and report success. Lookup sessions with an empty ref use the service
// account.
func (d *Directory) OpenSession(ctx context.Context, ref identity.DirectoryRef, password string, purpose identity.SessionPurpose) (identity.DirectorySession, error) {
	s, err := d.openSession(ctx, ref, password, purpose)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Directory) openSession(ctx context.Context, ref identity.DirectoryRef, password string, purpose identity.SessionPurpose) (*session, error) {
	dn := string(ref)
	switch purpose {
	case identity.PurposeEndUserAuth:
		if dn == "" || password == "" {
			return nil, oops.Code("DIRECTORY_ANONYMOUS_BIND").Errorf("end user bind requires a dn and a password")
		}
	case identity.PurposeLookup:
		if dn == "" {
			dn, password = d.cfg.BindDN, d.cfg.BindPassword
		}
	default:
		return nil, oops.Code("DIRECTORY_INVALID_PURPOSE").With("purpose", purpose).Errorf("unknown session purpose")
	}

	if err := ctx.Err(); err != nil {
		return nil, oops.Code("DIRECTORY_UNAVAILABLE").Wrap(err)
	}
	conn, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	if dn != "" {
		if err := conn.Bind(dn, password); err != nil {
			_ = conn.Unbind() //nolint:errcheck // bind error takes precedence
			if goldap.IsErrorWithCode(err, goldap.LDAPResultInvalidCredentials) {
				return nil, oops.Code("DIRECTORY_BIND_REJECTED").With("dn", dn).Wrap(ErrInvalidCredentials)
			}
			return nil, oops.Code("DIRECTORY_BIND_FAILED").With("dn", dn).Wrap(err)
		}
	}
	return &session{conn: conn}, nil
}

// GetUserByName searches the user tree for the entry whose name attribute
// equals name.
func (d *Directory) GetUserByName(ctx context.Context, name string) (*identity.User, error) {
	if err := d.checkName(name); err != nil {
		return nil, oops.Code("USER_NOT_FOUND").With("name", name).Wrap(identity.ErrUserNotFound)
	}
	entry, err := d.searchOne(ctx, d.attrFilter(d.cfg.NameAttribute, name), d.userAttributes())
	if err != nil {
		return nil, oops.With("operation", "get user by name").With("name", name).Wrap(err)
	}
	return d.entryToUser(entry), nil
}

func (d *Directory) checkName(name string) error {
	if name == "" {
		return oops.Code("DIRECTORY_NAME_REJECTED").Wrap(ErrNameNotAllowed)
	}
	if len(d.allowed) == 0 {
		return nil
	}
	for _, g := range d.allowed {
		if g.Match(name) {
			return nil
		}
	}
	return oops.Code("DIRECTORY_NAME_REJECTED").With("name", name).Wrap(ErrNameNotAllowed)
}

func (d *Directory) attrFilter(attr, value string) string {
	return "(&(objectClass=" + goldap.EscapeFilter(d.cfg.UserObjectClass) + ")(" + attr + "=" + goldap.EscapeFilter(value) + "))"
}

func (d *Directory) userAttributes() []string {
	attrs := []string{d.cfg.IDAttribute, d.cfg.NameAttribute, d.cfg.MailAttribute}
	if d.cfg.EnabledAttribute != "" {
		attrs = append(attrs, d.cfg.EnabledAttribute)
	}
	return attrs
}

func (d *Directory) searchScope() int {
	if d.cfg.Scope == ScopeSubtree {
		return goldap.ScopeWholeSubtree
	}
	return goldap.ScopeSingleLevel
}

// timeLimit is the server-side search time limit in whole seconds. It is
// never 0, which the server reads as no limit.
func (d *Directory) timeLimit() int {
	secs := int(math.Ceil(d.cfg.Timeout.Seconds()))
	return max(secs, 1)
}

// searchOne runs filter under the user tree on a service session and
// expects exactly one entry.
func (d *Directory) searchOne(ctx context.Context, filter string, attrs []string) (*goldap.Entry, error) {
	s, err := d.openSession(ctx, "", "", identity.PurposeLookup)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.Release(); err != nil {
			d.logger.DebugContext(ctx, "failed to release lookup session", "error", err)
		}
	}()

	if attrs == nil {
		attrs = []string{"dn"}
	}
	req := goldap.NewSearchRequest(
		d.cfg.UserTreeDN,
		d.searchScope(), goldap.NeverDerefAliases, 2, d.timeLimit(), false,
		filter,
		attrs,
		nil,
	)
	res, err := s.conn.Search(req)
	switch {
	case goldap.IsErrorWithCode(err, goldap.LDAPResultNoSuchObject):
		return nil, oops.Code("USER_NOT_FOUND").Wrap(identity.ErrUserNotFound)
	case goldap.IsErrorWithCode(err, goldap.LDAPResultSizeLimitExceeded):
		return nil, oops.Code("DIRECTORY_AMBIGUOUS").With("filter", filter).Errorf("more than one entry matches")
	case err != nil:
		return nil, oops.Code("DIRECTORY_SEARCH_FAILED").With("filter", filter).Wrap(err)
	}

	switch len(res.Entries) {
	case 0:
		return nil, oops.Code("USER_NOT_FOUND").Wrap(identity.ErrUserNotFound)
	case 1:
		return res.Entries[0], nil
	default:
		return nil, oops.Code("DIRECTORY_AMBIGUOUS").With("filter", filter).Errorf("more than one entry matches")
	}
}

// session is a bound connection. Release unbinds once.
type session struct {
	conn Conn
	once sync.Once
	err  error
}

func (s *session) Release() error {
	s.once.Do(func() {
		s.err = s.conn.Unbind()
	})
	return s.err
}

// Compile-time interface check.
var _ identity.Directory = (*Directory)(nil)

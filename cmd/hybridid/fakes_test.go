// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/stretchr/testify/require"

	"github.com/holomush/hybridid/internal/api"
	"github.com/holomush/hybridid/internal/config"
	"github.com/holomush/hybridid/internal/identity"
	"github.com/holomush/hybridid/internal/identity/ldap"
	"github.com/holomush/hybridid/internal/observability"
)

// fakeUserStore implements UserStore in memory.
type fakeUserStore struct {
	mu      sync.Mutex
	users   map[string]*identity.User
	created []*identity.User
	pingErr error
	closed  bool
	pings   int
}

func newFakeUserStore(users ...*identity.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*identity.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) WithReadTx(ctx context.Context, fn func(ctx context.Context, r identity.UserReader) error) error {
	return fn(ctx, s)
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(identity.ErrUserNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetUserByName(_ context.Context, name, domainID string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Name, name) && u.DomainID == domainID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(identity.ErrUserNotFound)
}

func (s *fakeUserStore) ListUsers(_ context.Context, hints identity.ListHints) ([]*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*identity.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	if hints.Limit > 0 && len(out) > hints.Limit {
		out = out[:hints.Limit]
	}
	return out, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return oops.Code("USER_EXISTS").Errorf("user exists")
	}
	cp := *u
	s.users[u.ID] = &cp
	s.created = append(s.created, &cp)
	return nil
}

func (s *fakeUserStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pings++
	return s.pingErr
}

func (s *fakeUserStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// fakeMigrator implements Migrator.
type fakeMigrator struct {
	version uint
	dirty   bool
	pending []uint
	upErr   error

	ups, downs int
	steps      []int
	forced     []int
	closed     bool
}

func (m *fakeMigrator) Up() error {
	m.ups++
	return m.upErr
}

func (m *fakeMigrator) Down() error {
	m.downs++
	return nil
}

func (m *fakeMigrator) Steps(n int) error {
	m.steps = append(m.steps, n)
	return nil
}

func (m *fakeMigrator) Version() (uint, bool, error) { return m.version, m.dirty, nil }

func (m *fakeMigrator) Force(v int) error {
	m.forced = append(m.forced, v)
	return nil
}

func (m *fakeMigrator) PendingMigrations() ([]uint, error) { return m.pending, nil }

func (m *fakeMigrator) Close() error {
	m.closed = true
	return nil
}

// fakeObservabilityServer implements ObservabilityServer.
type fakeObservabilityServer struct {
	ready    observability.ReadinessChecker
	metrics  *observability.Metrics
	registry prometheus.Registerer
	started chan struct{}
	stopped bool
	errCh   chan error
}

func (s *fakeObservabilityServer) Start() (<-chan error, error) {
	close(s.started)
	return s.errCh, nil
}

func (s *fakeObservabilityServer) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func (s *fakeObservabilityServer) Addr() string { return "127.0.0.1:0" }

func (s *fakeObservabilityServer) Metrics() *observability.Metrics { return s.metrics }

func (s *fakeObservabilityServer) Registerer() prometheus.Registerer { return s.registry }

// fakeAPIServer implements APIServer and keeps the backend it serves.
type fakeAPIServer struct {
	mu       sync.Mutex
	backend  api.Backend
	reg      prometheus.Registerer
	started  chan struct{}
	startErr error
	stopped  bool
}

func newFakeAPIServer() *fakeAPIServer {
	return &fakeAPIServer{started: make(chan struct{})}
}

func (s *fakeAPIServer) factory() func(string, api.Backend, *slog.Logger, prometheus.Registerer) APIServer {
	return func(_ string, backend api.Backend, _ *slog.Logger, reg prometheus.Registerer) APIServer {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.backend = backend
		s.reg = reg
		return s
	}
}

func (s *fakeAPIServer) Start() (<-chan error, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	close(s.started)
	return make(chan error), nil
}

func (s *fakeAPIServer) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeAPIServer) Addr() string { return "127.0.0.1:0" }

// testDeps returns Deps wired to the given fakes. dir may be nil for
// commands that never build a backend.
func testDeps(users *fakeUserStore, dir identity.Directory) *Deps {
	return &Deps{
		StoreFactory: func(context.Context, config.DatabaseConfig) (UserStore, error) {
			return users, nil
		},
		DirectoryFactory: func(ldap.Config, *slog.Logger) (identity.Directory, error) {
			return dir, nil
		},
		APIServerFactory: newFakeAPIServer().factory(),
		ConfigLoader:     config.Loader{Getenv: func(string) string { return "" }},
	}
}

const directoryConfig = `directory:
  url: ldap://ldap.example.com
  user_tree_dn: ou=Users,dc=example,dc=com
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hybridid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the root command and returns stdout and stderr.
func execute(t *testing.T, deps *Deps, stdin string, args ...string) (string, string, error) {
	t.Helper()
	if deps.Stdin == nil {
		deps.Stdin = strings.NewReader(stdin)
	}
	cmd := newRootCmd(deps)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

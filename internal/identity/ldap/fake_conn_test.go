// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ldap

import (
	"context"
	"crypto/tls"
	"errors"
	"sync"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
)

// fakeServer hands out fakeConns that share its accounts and entries.
type fakeServer struct {
	mu        sync.Mutex
	passwords map[string]string
	entries   []*goldap.Entry
	searchErr error
	dialErrs  []error
	dials     int
	conns     []*fakeConn
	searches  []*goldap.SearchRequest
}

func newFakeServer() *fakeServer {
	return &fakeServer{passwords: map[string]string{}}
}

func (s *fakeServer) dialer() Dialer {
	return func(_ context.Context, _ string, _ time.Duration, _ *tls.Config) (Conn, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.dials++
		if len(s.dialErrs) > 0 {
			err := s.dialErrs[0]
			s.dialErrs = s.dialErrs[1:]
			return nil, err
		}
		c := &fakeConn{server: s}
		s.conns = append(s.conns, c)
		return c, nil
	}
}

func (s *fakeServer) openConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.conns {
		if c.unbinds == 0 {
			n++
		}
	}
	return n
}

type fakeConn struct {
	server   *fakeServer
	boundAs  string
	startTLS bool
	unbinds  int
}

func (c *fakeConn) Bind(username, password string) error {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	want, ok := c.server.passwords[username]
	if !ok || want != password {
		return goldap.NewError(goldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
	}
	c.boundAs = username
	return nil
}

func (c *fakeConn) Search(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	c.server.searches = append(c.server.searches, req)
	if c.server.searchErr != nil {
		return nil, c.server.searchErr
	}
	return &goldap.SearchResult{Entries: c.server.entries}, nil
}

func (c *fakeConn) StartTLS(*tls.Config) error {
	c.startTLS = true
	return nil
}

func (c *fakeConn) Unbind() error {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	c.unbinds++
	return nil
}

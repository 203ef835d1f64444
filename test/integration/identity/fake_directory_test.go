// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package identity_test

import (
	"context"
	"errors"
	"sync"

	"github.com/holomush/hybridid/internal/identity"
)

// directory is an in-memory identity.Directory keyed by user name.
type directory struct {
	mu        sync.Mutex
	passwords map[string]string
	users     map[string]*identity.User
	openTxs   func() int32
	// txsAtBind records openTxs observed when a session opens.
	txsAtBind []int32
}

func (d *directory) ReferenceForName(_ context.Context, name string) (identity.DirectoryRef, error) {
	return identity.DirectoryRef("cn=" + name + ",ou=Users,dc=example,dc=com"), nil
}

func (d *directory) OpenSession(_ context.Context, ref identity.DirectoryRef, password string, _ identity.SessionPurpose) (identity.DirectorySession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openTxs != nil {
		d.txsAtBind = append(d.txsAtBind, d.openTxs())
	}
	for name, pw := range d.passwords {
		if string(ref) == "cn="+name+",ou=Users,dc=example,dc=com" && pw == password && password != "" {
			return session{}, nil
		}
	}
	return nil, errors.New("invalid credentials")
}

func (d *directory) GetUserByName(_ context.Context, name string) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[name]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, identity.ErrUserNotFound
}

type session struct{}

func (session) Release() error { return nil }

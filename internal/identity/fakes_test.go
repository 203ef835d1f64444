// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package identity_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/hybridid/internal/identity"
)

// fakeStore is an in-memory identity.UserStore.
type fakeStore struct {
	mu      sync.Mutex
	users   map[string]*identity.User
	readTxs int
	openTxs int

	// getErr, byNameErr and listErr replace the normal result when set.
	getErr    error
	byNameErr error
	listErr   error

	// openDuringRead records openTxs observed by GetUserByID.
	openDuringRead []int
}

func newFakeStore(users ...*identity.User) *fakeStore {
	s := &fakeStore{users: make(map[string]*identity.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) WithReadTx(ctx context.Context, fn func(ctx context.Context, r identity.UserReader) error) error {
	s.mu.Lock()
	s.readTxs++
	s.openTxs++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.openTxs--
		s.mu.Unlock()
	}()
	return fn(ctx, s)
}

func (s *fakeStore) GetUserByID(_ context.Context, id string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openDuringRead = append(s.openDuringRead, s.openTxs)
	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id).Wrap(identity.ErrUserNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetUserByName(_ context.Context, name, domainID string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byNameErr != nil {
		return nil, s.byNameErr
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Name, name) && u.DomainID == domainID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").With("name", name).Wrap(identity.ErrUserNotFound)
}

func (s *fakeStore) ListUsers(_ context.Context, _ identity.ListHints) ([]*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*identity.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type recordedEvent struct {
	kind    string
	op      string
	source  identity.Source
	outcome identity.Outcome
}

// fakeRecorder captures Recorder events.
type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *fakeRecorder) AuthAttempt(src identity.Source, outcome identity.Outcome) {
	r.add(recordedEvent{kind: "auth", source: src, outcome: outcome})
}

func (r *fakeRecorder) DirectoryBind(outcome identity.Outcome) {
	r.add(recordedEvent{kind: "bind", outcome: outcome})
}

func (r *fakeRecorder) Lookup(op string, src identity.Source, outcome identity.Outcome) {
	r.add(recordedEvent{kind: "lookup", op: op, source: src, outcome: outcome})
}

func (r *fakeRecorder) add(e recordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *fakeRecorder) byKind(kind string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func relationalUser(id, name, hash string) *identity.User {
	u := &identity.User{
		ID:       id,
		Name:     name,
		DomainID: identity.DefaultDomainID,
		Enabled:  true,
		Extra:    map[string]any{"email": name + "@example.com"},
	}
	if hash != "" {
		u.Password = &identity.Credential{Hash: hash}
	}
	return u
}

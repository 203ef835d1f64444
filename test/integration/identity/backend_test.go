// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package identity_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/hybridid/internal/identity"
	"github.com/holomush/hybridid/internal/identity/postgres"
)

var _ = Describe("UserStore", func() {
	var (
		ctx   context.Context
		users *postgres.UserStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncateUsers()
		users = postgres.NewUserStore(pool)
	})

	createUser := func(id, name, domainID, hash string) {
		u := &identity.User{ID: id, Name: name, DomainID: domainID, Enabled: true,
			Extra: map[string]any{"email": name + "@example.com"}}
		if hash != "" {
			u.Password = &identity.Credential{Hash: hash}
		}
		Expect(users.Create(ctx, u)).To(Succeed())
	}

	It("round-trips a user through a read transaction", func() {
		createUser("u1", "Alice", identity.DefaultDomainID, "hash-material")

		var got *identity.User
		err := users.WithReadTx(ctx, func(ctx context.Context, r identity.UserReader) error {
			var err error
			got, err = r.GetUserByID(ctx, "u1")
			return err
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("Alice"))
		Expect(got.Password.IsUsable()).To(BeTrue())
		Expect(got.Extra).To(HaveKeyWithValue("email", "Alice@example.com"))
	})

	It("matches names case-insensitively within a domain", func() {
		createUser("u1", "Alice", identity.DefaultDomainID, "")
		createUser("u2", "alice", "other", "")

		got, err := users.GetUserByName(ctx, "ALICE", identity.DefaultDomainID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal("u1"))

		_, err = users.GetUserByName(ctx, "alice", "missing")
		Expect(err).To(MatchError(identity.ErrUserNotFound))
	})

	It("rejects a second user with the same name in a domain", func() {
		createUser("u1", "alice", identity.DefaultDomainID, "")

		err := users.Create(ctx, &identity.User{ID: "u2", Name: "ALICE", DomainID: identity.DefaultDomainID})
		Expect(err).To(MatchError(postgres.ErrUserExists))
	})

	It("filters listings", func() {
		createUser("u1", "alice", identity.DefaultDomainID, "")
		createUser("u2", "albert", identity.DefaultDomainID, "")
		createUser("u3", "bob_100%", identity.DefaultDomainID, "")

		hints := identity.ListHints{}
		hints.Add(identity.FieldName, identity.CompareStartsWith, "AL")
		got, err := users.ListUsers(ctx, hints)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))

		hints = identity.ListHints{}
		hints.Add(identity.FieldName, identity.CompareContains, "_100%")
		got, err = users.ListUsers(ctx, hints)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].ID).To(Equal("u3"))

		got, err = users.ListUsers(ctx, identity.ListHints{Limit: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].ID).To(Equal("u1"))
	})
})

var _ = Describe("Backend", func() {
	var (
		ctx     context.Context
		users   *postgres.UserStore
		dir     *directory
		backend *identity.Backend
		hasher  *identity.Hasher
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncateUsers()
		users = postgres.NewUserStore(pool)
		hasher = identity.NewHasher()
		dir = &directory{
			passwords: map[string]string{"bob": "ldap-secret", "alice": "ldap-alice"},
			users: map[string]*identity.User{
				"carol": {ID: "carol", Name: "carol", DomainID: identity.DefaultDomainID, Enabled: true},
			},
			openTxs: func() int32 { return pool.Stat().AcquiredConns() },
		}

		hash, err := hasher.Hash("sql-secret")
		Expect(err).NotTo(HaveOccurred())
		Expect(users.Create(ctx, &identity.User{ID: "u-alice", Name: "alice", Enabled: true,
			Password: &identity.Credential{Hash: hash}})).To(Succeed())
		Expect(users.Create(ctx, &identity.User{ID: "u-bob", Name: "bob", Enabled: true})).To(Succeed())

		backend, err = identity.NewBackend(users, dir, hasher)
		Expect(err).NotTo(HaveOccurred())
	})

	It("authenticates against the stored hash", func() {
		res, err := backend.Authenticate(ctx, "u-alice", "sql-secret")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Source).To(Equal(identity.SourceRelational))
		Expect(res.User.Password).To(BeNil())
		Expect(dir.txsAtBind).To(BeEmpty())
	})

	It("falls back to the directory with no transaction held", func() {
		res, err := backend.Authenticate(ctx, "u-bob", "ldap-secret")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Source).To(Equal(identity.SourceDirectory))
		Expect(dir.txsAtBind).To(Equal([]int32{0}))
	})

	It("falls back to the directory when the stored hash does not match", func() {
		res, err := backend.Authenticate(ctx, "u-alice", "ldap-alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Source).To(Equal(identity.SourceDirectory))
	})

	It("rejects bad credentials uniformly", func() {
		for _, id := range []string{"u-alice", "u-bob", "missing"} {
			_, err := backend.Authenticate(ctx, id, "wrong")
			Expect(err).To(BeIdenticalTo(identity.ErrAuthenticationFailed))
		}
	})

	It("resolves names from the store, then the directory", func() {
		u, err := backend.GetUserByName(ctx, "alice", identity.DefaultDomainID)
		Expect(err).NotTo(HaveOccurred())
		Expect(u.ID).To(Equal("u-alice"))

		u, err = backend.GetUserByName(ctx, "carol", identity.DefaultDomainID)
		Expect(err).NotTo(HaveOccurred())
		Expect(u.ID).To(Equal("carol"))

		_, err = backend.GetUserByName(ctx, "nobody", identity.DefaultDomainID)
		Expect(err).To(MatchError(identity.ErrUserNotFound))
	})
})

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import "github.com/holomush/hybridid/internal/identity"

// UserView is the wire form of an identity.User. It never carries a
// credential.
type UserView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	DomainID string         `json:"domain_id"`
	Enabled  bool           `json:"enabled"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// NewUserView filters u and converts it.
func NewUserView(u *identity.User) UserView {
	u = identity.FilterUser(u)
	if u == nil {
		return UserView{}
	}
	return UserView{
		ID:       u.ID,
		Name:     u.Name,
		DomainID: u.DomainID,
		Enabled:  u.Enabled,
		Extra:    u.Extra,
	}
}

// AuthView is the wire form of a successful authentication.
type AuthView struct {
	Source      identity.Source `json:"source"`
	DomainAware bool            `json:"domain_aware"`
	User        UserView        `json:"user"`
}

// NewAuthView converts res.
func NewAuthView(res *identity.AuthResult) AuthView {
	return AuthView{
		Source:      res.Source,
		DomainAware: res.DomainAware(),
		User:        NewUserView(res.User),
	}
}

type errorView struct {
	Error string `json:"error"`
}

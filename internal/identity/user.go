// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package identity

import (
	"maps"
	"strings"

	"github.com/samber/oops"
)

// DefaultDomainID is the domain assigned to users that do not name one.
const DefaultDomainID = "default"

// User is the canonical user record shared by both stores.
type User struct {
	ID       string
	Name     string
	DomainID string
	Enabled  bool
	Extra    map[string]any

	// Password is set only for relational users that have stored hash
	// material. Directory users never carry it.
	Password *Credential
}

// Credential holds password-verification material.
type Credential struct {
	Hash string
}

// IsUsable reports whether the credential holds hash material that can be
// handed to a PasswordVerifier.
func (c *Credential) IsUsable() bool {
	return c != nil && c.Hash != ""
}

// sensitiveExtraKeys never leave the backend, whichever store set them.
var sensitiveExtraKeys = []string{"password", "password_hash", "userpassword"}

// FilterUser returns a copy of u that is safe to return to callers: the
// credential is dropped and sensitive extra attributes are removed.
// The input is not modified.
func FilterUser(u *User) *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Password = nil
	if u.Extra != nil {
		out.Extra = maps.Clone(u.Extra)
		for k := range out.Extra {
			if isSensitiveKey(k) {
				delete(out.Extra, k)
			}
		}
	}
	return &out
}

func isSensitiveKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range sensitiveExtraKeys {
		if k == s {
			return true
		}
	}
	return false
}

// Source identifies the store that served an authentication.
type Source string

// Sources.
const (
	SourceRelational Source = "relational"
	SourceDirectory  Source = "directory"
)

// AuthResult is the outcome of a successful authentication.
type AuthResult struct {
	User   *User
	Source Source
}

// DomainAware reports whether the authoritative relational store served the
// authentication.
func (r *AuthResult) DomainAware() bool {
	return r.Source == SourceRelational
}

// Comparator is the match operator of a list filter.
type Comparator string

// Supported comparators.
const (
	CompareEquals     Comparator = "equals"
	CompareContains   Comparator = "contains"
	CompareStartsWith Comparator = "startswith"
	CompareEndsWith   Comparator = "endswith"
)

// Filterable user fields.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldDomainID = "domain_id"
	FieldEnabled  = "enabled"
)

// Filter narrows a user listing.
type Filter struct {
	Field         string
	Comparator    Comparator
	Value         string
	CaseSensitive bool
}

// ListHints carries filters and a limit for ListUsers. The zero value lists
// every user.
type ListHints struct {
	Filters []Filter
	Limit   int
}

// Add appends a case-insensitive filter and returns h for chaining.
func (h *ListHints) Add(field string, cmp Comparator, value string) *ListHints {
	h.Filters = append(h.Filters, Filter{Field: field, Comparator: cmp, Value: value})
	return h
}

// Validate rejects unknown fields, comparators and negative limits.
func (h ListHints) Validate() error {
	if h.Limit < 0 {
		return oops.Code("INVALID_HINTS").With("limit", h.Limit).Errorf("limit must be non-negative")
	}
	for _, f := range h.Filters {
		switch f.Field {
		case FieldID, FieldName, FieldDomainID, FieldEnabled:
		default:
			return oops.Code("INVALID_HINTS").With("field", f.Field).Errorf("unsupported filter field %q", f.Field)
		}
		switch f.Comparator {
		case CompareEquals, CompareContains, CompareStartsWith, CompareEndsWith:
		default:
			return oops.Code("INVALID_HINTS").With("comparator", f.Comparator).Errorf("unsupported comparator %q", f.Comparator)
		}
		if f.Field == FieldEnabled {
			if f.Comparator != CompareEquals {
				return oops.Code("INVALID_HINTS").Errorf("enabled only supports equals")
			}
			if f.Value != "true" && f.Value != "false" {
				return oops.Code("INVALID_HINTS").With("value", f.Value).Errorf("enabled must be true or false")
			}
		}
	}
	return nil
}

// ParseFilter parses a filter written as field:comparator:value. The value
// may itself contain colons.
func ParseFilter(raw string) (Filter, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Filter{}, oops.Code("INVALID_FILTER").With("filter", raw).
			Errorf("filter must be field:comparator:value")
	}
	return Filter{
		Field:      parts[0],
		Comparator: Comparator(parts[1]),
		Value:      parts[2],
	}, nil
}

// ParseHints builds validated ListHints from raw filters.
func ParseHints(filters []string, caseSensitive bool, limit int) (ListHints, error) {
	hints := ListHints{Limit: limit}
	for _, raw := range filters {
		f, err := ParseFilter(raw)
		if err != nil {
			return ListHints{}, err
		}
		f.CaseSensitive = caseSensitive
		hints.Filters = append(hints.Filters, f)
	}
	if err := hints.Validate(); err != nil {
		return ListHints{}, err
	}
	return hints, nil
}

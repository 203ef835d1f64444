// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ldap

import (
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/hybridid/internal/identity"
)

// Scope is the depth of user searches below the user tree.
type Scope string

// Scopes.
const (
	ScopeOneLevel Scope = "one"
	ScopeSubtree  Scope = "sub"
)

// Config describes the directory and how its entries map to users.
type Config struct {
	URL        string
	UserTreeDN string
	Scope      Scope

	UserObjectClass string
	IDAttribute     string
	NameAttribute   string
	MailAttribute   string

	// EnabledAttribute holds the enabled flag. With EnabledMask set it is
	// an integer whose masked bits mark the account disabled.
	EnabledAttribute string
	EnabledMask      int
	EnabledInvert    bool
	// EnabledDefault is used when an entry has no EnabledAttribute value.
	EnabledDefault string

	// DefaultDomainID is assigned to every directory user.
	DefaultDomainID string

	// BindDN and BindPassword are the service account used for lookups.
	// Lookups bind anonymously when BindDN is empty.
	BindDN       string
	BindPassword string

	StartTLS           bool
	InsecureSkipVerify bool
	Timeout            time.Duration
	DialAttempts       uint64

	// AllowedNames are glob patterns. When set, names that match none of
	// them are never sent to the directory.
	AllowedNames []string
}

// DefaultConfig returns the attribute mapping of a stock inetOrgPerson tree.
func DefaultConfig() Config {
	return Config{
		Scope:           ScopeOneLevel,
		UserObjectClass: "inetOrgPerson",
		IDAttribute:     "cn",
		NameAttribute:   "sn",
		MailAttribute:   "mail",
		EnabledDefault:  "true",
		DefaultDomainID: identity.DefaultDomainID,
		Timeout:         5 * time.Second,
		DialAttempts:    3,
	}
}

// withDefaults fills empty fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Scope == "" {
		c.Scope = d.Scope
	}
	if c.UserObjectClass == "" {
		c.UserObjectClass = d.UserObjectClass
	}
	if c.IDAttribute == "" {
		c.IDAttribute = d.IDAttribute
	}
	if c.NameAttribute == "" {
		c.NameAttribute = d.NameAttribute
	}
	if c.MailAttribute == "" {
		c.MailAttribute = d.MailAttribute
	}
	if c.EnabledDefault == "" {
		c.EnabledDefault = d.EnabledDefault
	}
	if c.DefaultDomainID == "" {
		c.DefaultDomainID = d.DefaultDomainID
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.DialAttempts == 0 {
		c.DialAttempts = d.DialAttempts
	}
	return c
}

// Validate checks the settings New depends on.
func (c Config) Validate() error {
	if c.URL == "" {
		return oops.Code("INVALID_DIRECTORY_CONFIG").Errorf("directory url is required")
	}
	if !strings.HasPrefix(c.URL, "ldap://") && !strings.HasPrefix(c.URL, "ldaps://") && !strings.HasPrefix(c.URL, "ldapi://") {
		return oops.Code("INVALID_DIRECTORY_CONFIG").With("url", c.URL).Errorf("directory url must use ldap, ldaps or ldapi")
	}
	if c.UserTreeDN == "" {
		return oops.Code("INVALID_DIRECTORY_CONFIG").Errorf("user tree dn is required")
	}
	switch c.Scope {
	case "", ScopeOneLevel, ScopeSubtree:
	default:
		return oops.Code("INVALID_DIRECTORY_CONFIG").With("scope", c.Scope).Errorf("scope must be %q or %q", ScopeOneLevel, ScopeSubtree)
	}
	if c.EnabledMask < 0 {
		return oops.Code("INVALID_DIRECTORY_CONFIG").With("enabled_mask", c.EnabledMask).Errorf("enabled mask must be non-negative")
	}
	if c.StartTLS && strings.HasPrefix(c.URL, "ldaps://") {
		return oops.Code("INVALID_DIRECTORY_CONFIG").Errorf("start tls cannot be used with ldaps")
	}
	if _, err := compileNames(c.AllowedNames); err != nil {
		return err
	}
	return nil
}

func compileNames(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, oops.Code("INVALID_DIRECTORY_CONFIG").With("pattern", p).Wrap(err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

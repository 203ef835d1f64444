// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ldap

import (
	"strconv"
	"strings"

	goldap "github.com/go-ldap/ldap/v3"

	"github.com/holomush/hybridid/internal/identity"
)

// entryToUser maps a directory entry to a user without credential material.
func (d *Directory) entryToUser(entry *goldap.Entry) *identity.User {
	u := &identity.User{
		ID:       entry.GetAttributeValue(d.cfg.IDAttribute),
		Name:     entry.GetAttributeValue(d.cfg.NameAttribute),
		DomainID: d.cfg.DefaultDomainID,
		Enabled:  d.enabled(entry),
		Extra:    map[string]any{"dn": entry.DN},
	}
	if mail := entry.GetAttributeValue(d.cfg.MailAttribute); mail != "" {
		u.Extra["email"] = mail
	}
	return u
}

func (d *Directory) enabled(entry *goldap.Entry) bool {
	raw := d.cfg.EnabledDefault
	if d.cfg.EnabledAttribute != "" {
		if v := entry.GetAttributeValue(d.cfg.EnabledAttribute); v != "" {
			raw = v
		}
	}
	return parseEnabled(raw, d.cfg.EnabledMask, d.cfg.EnabledInvert)
}

// parseEnabled interprets an enabled attribute value. With a mask the value
// is an integer and the account is disabled when every masked bit is set.
// Unparseable values read as disabled.
func parseEnabled(raw string, mask int, invert bool) bool {
	raw = strings.TrimSpace(raw)
	if mask > 0 {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return false
		}
		return n&mask != mask
	}
	b, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false
	}
	if invert {
		return !b
	}
	return b
}

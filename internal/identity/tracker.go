// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package identity

import "sync/atomic"

// TrustDomainTracker remembers whether the most recent successful
// authentication was served by the directory.
//
// The signal is instance-wide: concurrent authentications through the same
// tracker overwrite each other. Prefer AuthResult.Source, which is scoped to
// one call.
type TrustDomainTracker struct {
	// directoryServed is the inverse of the domain-aware flag so the zero
	// value reads as domain aware.
	directoryServed atomic.Bool
}

// Record stores the source of a successful authentication.
func (t *TrustDomainTracker) Record(src Source) {
	t.directoryServed.Store(src == SourceDirectory)
}

// IsDomainAware returns false exactly once after a directory-served
// authentication and true otherwise. Reading resets the flag.
func (t *TrustDomainTracker) IsDomainAware() bool {
	return !t.directoryServed.Swap(false)
}

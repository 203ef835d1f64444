// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ldap

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Conn is the part of *goldap.Conn the directory uses.
type Conn interface {
	Bind(username, password string) error
	Search(req *goldap.SearchRequest) (*goldap.SearchResult, error)
	StartTLS(config *tls.Config) error
	Unbind() error
}

// Dialer opens a connection to the directory at url.
type Dialer func(ctx context.Context, url string, timeout time.Duration, tlsConfig *tls.Config) (Conn, error)

// DialURL is the Dialer backed by go-ldap.
func DialURL(_ context.Context, url string, timeout time.Duration, tlsConfig *tls.Config) (Conn, error) {
	conn, err := goldap.DialURL(url,
		goldap.DialWithDialer(&net.Dialer{Timeout: timeout}),
		goldap.DialWithTLSConfig(tlsConfig),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by connect
	}
	conn.SetTimeout(timeout)
	return conn, nil
}

const dialBackoffBase = 100 * time.Millisecond

// connect dials with retries on network errors, then issues StartTLS if
// configured. Any other failure is returned at once.
func (d *Directory) connect(ctx context.Context) (Conn, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: d.cfg.InsecureSkipVerify} //nolint:gosec // operator opt-in

	var conn Conn
	backoff := retry.WithMaxRetries(d.cfg.DialAttempts-1, retry.NewExponential(dialBackoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := d.dial(ctx, d.cfg.URL, d.cfg.Timeout, tlsConfig)
		if err != nil {
			if goldap.IsErrorWithCode(err, goldap.ErrorNetwork) {
				return retry.RetryableError(err)
			}
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, oops.Code("DIRECTORY_UNAVAILABLE").With("url", d.cfg.URL).Wrap(err)
	}

	if d.cfg.StartTLS {
		if err := conn.StartTLS(tlsConfig); err != nil {
			_ = conn.Unbind() //nolint:errcheck // start tls error takes precedence
			return nil, oops.Code("DIRECTORY_TLS_FAILED").With("url", d.cfg.URL).Wrap(err)
		}
	}
	return conn, nil
}

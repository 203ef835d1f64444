// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/hybridid/pkg/errutil"
)

func TestPoolConfig(t *testing.T) {
	t.Run("applies options", func(t *testing.T) {
		cfg, err := poolConfig("postgres://u:p@localhost:5432/ids", PoolOptions{
			MaxConns:        8,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			ConnectTimeout:  3 * time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, int32(8), cfg.MaxConns)
		assert.Equal(t, int32(2), cfg.MinConns)
		assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
		assert.Equal(t, 3*time.Second, cfg.ConnConfig.ConnectTimeout)
	})

	t.Run("zero options keep defaults", func(t *testing.T) {
		cfg, err := poolConfig("postgres://localhost/ids?pool_max_conns=5", PoolOptions{})
		require.NoError(t, err)
		assert.Equal(t, int32(5), cfg.MaxConns)
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := poolConfig("", PoolOptions{})
		errutil.AssertErrorCode(t, err, "DB_URL_MISSING")
	})

	t.Run("unparseable url", func(t *testing.T) {
		_, err := poolConfig("postgres://localhost/ids?pool_max_conns=lots", PoolOptions{})
		errutil.AssertErrorCode(t, err, "DB_URL_INVALID")
	})

	t.Run("min above max", func(t *testing.T) {
		_, err := poolConfig("postgres://localhost/ids", PoolOptions{MaxConns: 2, MinConns: 4})
		errutil.AssertErrorCode(t, err, "DB_POOL_INVALID")
	})
}

func TestOpenPool_InvalidURL(t *testing.T) {
	_, err := OpenPool(context.Background(), "", PoolOptions{})
	errutil.AssertErrorCode(t, err, "DB_URL_MISSING")
}

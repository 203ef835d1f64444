// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/hybridid/internal/config"
	"github.com/holomush/hybridid/pkg/errutil"
)

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
	}{
		{name: "valid integer", input: "3", wantVersion: 3},
		{name: "zero is valid", input: "0", wantVersion: 0},
		{name: "non-numeric returns error", input: "abc", wantErr: true},
		{name: "float parses as integer (Sscanf stops at dot)", input: "1.5", wantVersion: 1},
		{name: "trailing chars are ignored", input: "3abc", wantVersion: 3},
		{name: "negative parses", input: "-1", wantVersion: -1},
		{name: "empty string returns error", input: "", wantErr: true},
		{name: "whitespace only returns error", input: "   ", wantErr: true},
		{name: "leading whitespace is handled", input: "  42", wantVersion: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)

			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				assert.Equal(t, 0, version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	_, err := getDatabaseURL(&config.Config{})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")

	url, err := getDatabaseURL(&config.Config{Database: config.DatabaseConfig{URL: "postgres://localhost:5432/testdb"}})
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/testdb", url)
}

func migrateDeps(m *fakeMigrator, gotURL *string) *Deps {
	deps := testDeps(newFakeUserStore(), nil)
	deps.MigratorFactory = func(databaseURL string) (Migrator, error) {
		*gotURL = databaseURL
		return m, nil
	}
	return deps
}

const testDatabaseURL = "postgres://hybridid@localhost:5432/hybridid"

func TestMigrateUp(t *testing.T) {
	t.Run("applies pending migrations", func(t *testing.T) {
		m := &fakeMigrator{pending: []uint{1, 2}}
		var url string

		out, _, err := execute(t, migrateDeps(m, &url), "", "--database-url", testDatabaseURL, "migrate", "up")
		require.NoError(t, err)

		assert.Equal(t, testDatabaseURL, url)
		assert.Equal(t, 1, m.ups)
		assert.True(t, m.closed)
		assert.Contains(t, out, "Applying 2 migration(s)")
	})

	t.Run("nothing to do", func(t *testing.T) {
		m := &fakeMigrator{}
		var url string

		out, _, err := execute(t, migrateDeps(m, &url), "", "--database-url", testDatabaseURL, "migrate", "up")
		require.NoError(t, err)
		assert.Equal(t, 0, m.ups)
		assert.Contains(t, out, "No pending migrations")
	})

	t.Run("failure is returned", func(t *testing.T) {
		m := &fakeMigrator{pending: []uint{1}, upErr: errors.New("boom")}
		var url string

		_, _, err := execute(t, migrateDeps(m, &url), "", "--database-url", testDatabaseURL, "migrate", "up")
		require.Error(t, err)
		assert.True(t, m.closed)
	})

	t.Run("requires a database url", func(t *testing.T) {
		m := &fakeMigrator{}
		var url string

		_, _, err := execute(t, migrateDeps(m, &url), "", "migrate", "up")
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		assert.Empty(t, url)
	})
}

func TestMigrateDown(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantDowns int
		wantSteps []int
		wantErr   bool
	}{
		{name: "steps", args: []string{"--steps", "2"}, wantSteps: []int{-2}},
		{name: "all", args: []string{"--all"}, wantDowns: 1},
		{name: "neither", args: nil, wantErr: true},
		{name: "both", args: []string{"--all", "--steps", "1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMigrator{}
			var url string
			args := append([]string{"--database-url", testDatabaseURL, "migrate", "down"}, tt.args...)

			_, _, err := execute(t, migrateDeps(m, &url), "", args...)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "INVALID_ARGS")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDowns, m.downs)
			assert.Equal(t, tt.wantSteps, m.steps)
		})
	}
}

func TestMigrateVersion(t *testing.T) {
	m := &fakeMigrator{version: 1, dirty: true, pending: []uint{2}}
	var url string

	out, _, err := execute(t, migrateDeps(m, &url), "", "--database-url", testDatabaseURL, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 1 (000001_users) [dirty]")
	assert.Contains(t, out, "Pending: 1")
}

func TestMigrateForce(t *testing.T) {
	m := &fakeMigrator{}
	var url string

	_, _, err := execute(t, migrateDeps(m, &url), "", "--database-url", testDatabaseURL, "migrate", "force", "1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, m.forced)

	_, _, err = execute(t, migrateDeps(m, &url), "", "--database-url", testDatabaseURL, "migrate", "force", "x")
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}

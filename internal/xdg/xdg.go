// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg locates hybridid files under the XDG Base Directory layout.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "hybridid"

// ConfigFileName is the config file looked up in ConfigDir.
const ConfigFileName = "config.yaml"

// ConfigDir returns the XDG config directory for hybridid.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir(getenv func(string) string) string {
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path if it exists, or "".
func ConfigFile(getenv func(string) string) string {
	path := filepath.Join(ConfigDir(getenv), ConfigFileName)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path
	}
	return ""
}

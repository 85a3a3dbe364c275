// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg resolves the home- and XDG-relative paths pgcreds reads from.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "pgcreds"

// Default credential file names, relative to the home directory.
const (
	ServiceFileName = ".pg_service.conf"
	PassFileName    = ".pgpass"
	ConfigFileName  = "config.yaml"
)

// HomeDir returns the home directory from the process environment.
// HOME wins; os.UserHomeDir covers platforms that use another variable.
func HomeDir() (string, error) {
	if home := os.Getenv("HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", oops.Code("HOME_UNAVAILABLE").Wrap(err)
	}
	return home, nil
}

// ServiceFile returns <home>/.pg_service.conf.
func ServiceFile() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ServiceFileName), nil
}

// PassFile returns <home>/.pgpass.
func PassFile() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, PassFileName), nil
}

// ConfigDir returns the XDG config directory for pgcreds.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := HomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName), nil
}

// ConfigFile returns the default config file path.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

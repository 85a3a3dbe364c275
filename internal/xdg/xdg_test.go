// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package xdg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeDir_FromEnv(t *testing.T) {
	t.Setenv("HOME", "/home/testuser")

	got, err := HomeDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/testuser", got)
}

func TestServiceFile(t *testing.T) {
	t.Setenv("HOME", "/home/testuser")

	got, err := ServiceFile()
	require.NoError(t, err)
	assert.Equal(t, "/home/testuser/.pg_service.conf", got)
}

func TestPassFile(t *testing.T) {
	t.Setenv("HOME", "/home/testuser")

	got, err := PassFile()
	require.NoError(t, err)
	assert.Equal(t, "/home/testuser/.pgpass", got)
}

func TestConfigDir(t *testing.T) {
	tests := []struct {
		name       string
		configHome string
		want       string
	}{
		{name: "env var", configHome: "/custom/config", want: "/custom/config/pgcreds"},
		{name: "default", configHome: "", want: "/home/testuser/.config/pgcreds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", "/home/testuser")
			t.Setenv("XDG_CONFIG_HOME", tt.configHome)

			got, err := ConfigDir()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	got, err := ConfigFile()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/pgcreds/config.yaml", got)
}

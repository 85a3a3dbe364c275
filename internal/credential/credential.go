// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package credential resolves a PostgreSQL service name into a connection
// credential using a libpq-style service file and password file.
//
// Resolution is a pure function of its inputs: both files are read in full,
// the service section is located, its host/port/dbname/user are matched
// against the password file, and the first matching record supplies the
// password. Nothing is cached between calls.
package credential

import (
	"log/slog"
	"strconv"

	"github.com/samber/oops"
)

// Wildcard matches any value in the first four fields of a password entry.
const Wildcard = "*"

// ServiceDefinition holds the key/value pairs of one service section.
type ServiceDefinition map[string]string

// PasswordEntry is one host:port:dbname:user:password record.
type PasswordEntry struct {
	Host     string
	Port     string
	DBName   string
	User     string
	Password string
}

// Credential is a fully resolved connection credential.
type Credential struct {
	Service  string `json:"service" yaml:"service"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	DBName   string `json:"dbname" yaml:"dbname"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	SSLMode  string `json:"sslmode,omitempty" yaml:"sslmode,omitempty"`
}

// Mode parses SSLMode. An empty value is SSLModeUnset.
func (c Credential) Mode() (SSLMode, error) {
	if c.SSLMode == "" {
		return SSLModeUnset, nil
	}
	var m SSLMode
	if err := m.UnmarshalText([]byte(c.SSLMode)); err != nil {
		return SSLModeUnset, oops.Code(CodeSSLModeInvalid).
			With("service", c.Service).
			With("sslmode", c.SSLMode).
			Errorf("service %s has unknown sslmode %q", c.Service, c.SSLMode)
	}
	return m, nil
}

// Target returns host:port:dbname:user, the key the password file is matched on.
func (c Credential) Target() string {
	return c.Host + ":" + strconv.Itoa(c.Port) + ":" + c.DBName + ":" + c.User
}

// Redacted returns a copy with the password masked.
func (c Credential) Redacted() Credential {
	if c.Password != "" {
		c.Password = "********"
	}
	return c
}

// LogValue implements slog.LogValuer. The password is never logged.
func (c Credential) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("service", c.Service),
		slog.String("host", c.Host),
		slog.Int("port", c.Port),
		slog.String("dbname", c.DBName),
		slog.String("user", c.User),
	}
	if c.SSLMode != "" {
		attrs = append(attrs, slog.String("sslmode", c.SSLMode))
	}
	return slog.GroupValue(attrs...)
}

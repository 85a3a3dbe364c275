// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credential

import (
	"strconv"

	"github.com/samber/oops"

	"github.com/holomush/pgcreds/internal/xdg"
)

// Required service keys, looked up in this order.
const (
	KeyHost    = "host"
	KeyPort    = "port"
	KeyDBName  = "dbname"
	KeyUser    = "user"
	KeySSLMode = "sslmode"
)

// Resolve turns serviceName into a Credential.
//
// Both sources are read in full before any matching happens. The first
// password record matching the service's host, port, dbname and user wins,
// regardless of how many wildcards it uses.
func Resolve(serviceName string, services, passwords Source) (cred Credential, err error) {
	defer func() { recordOutcome(err) }()

	serviceLines, err := services.Lines()
	if err != nil {
		return Credential{}, oops.Code(CodeSourceUnavailable).With("source", "services").Wrap(err)
	}
	passwordLines, err := passwords.Lines()
	if err != nil {
		return Credential{}, oops.Code(CodeSourceUnavailable).With("source", "passwords").Wrap(err)
	}

	def := ParseServiceDefinition(serviceLines, serviceName)
	if len(def) == 0 {
		return Credential{}, oops.Code(CodeServiceNotFound).
			With("service", serviceName).
			Errorf("no service configuration found for %s", serviceName)
	}

	cred, err = credentialFromDefinition(serviceName, def)
	if err != nil {
		return Credential{}, err
	}

	port := strconv.Itoa(cred.Port)
	matches := MatchingEntries(ParsePasswordEntries(passwordLines), cred.Host, port, cred.DBName, cred.User)
	if len(matches) == 0 {
		return Credential{}, oops.Code(CodePasswordNotFound).
			With("service", serviceName).
			With("host", cred.Host).
			With("port", port).
			With("dbname", cred.DBName).
			With("user", cred.User).
			Errorf("no password found for %s", cred.Target())
	}

	cred.Password = matches[0].Password
	return cred, nil
}

// credentialFromDefinition extracts the required fields. No field is defaulted.
func credentialFromDefinition(serviceName string, def ServiceDefinition) (Credential, error) {
	lookup := func(key string) (string, error) {
		v, ok := def[key]
		if !ok {
			return "", oops.Code(CodeFieldMissing).
				With("service", serviceName).
				With("key", key).
				Errorf("service %s has no %s", serviceName, key)
		}
		return v, nil
	}

	host, err := lookup(KeyHost)
	if err != nil {
		return Credential{}, err
	}
	rawPort, err := lookup(KeyPort)
	if err != nil {
		return Credential{}, err
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return Credential{}, oops.Code(CodePortInvalid).
			With("service", serviceName).
			With("port", rawPort).
			Wrap(err)
	}
	dbname, err := lookup(KeyDBName)
	if err != nil {
		return Credential{}, err
	}
	user, err := lookup(KeyUser)
	if err != nil {
		return Credential{}, err
	}

	cred := Credential{
		Service: serviceName,
		Host:    host,
		Port:    port,
		DBName:  dbname,
		User:    user,
	}
	if raw, ok := def[KeySSLMode]; ok {
		cred.SSLMode = raw
	}
	return cred, nil
}

// Services lists the section names of a service source.
func Services(services Source) ([]string, error) {
	lines, err := services.Lines()
	if err != nil {
		return nil, oops.Code(CodeSourceUnavailable).With("source", "services").Wrap(err)
	}
	return ParseServiceNames(lines), nil
}

// Resolver binds a pair of sources.
type Resolver struct {
	services  Source
	passwords Source
}

// NewResolver creates a Resolver over the given sources.
func NewResolver(services, passwords Source) *Resolver {
	return &Resolver{services: services, passwords: passwords}
}

// NewFileResolver creates a Resolver over two files. An empty path selects
// the default under the home directory.
func NewFileResolver(serviceFile, passFile string) (*Resolver, error) {
	var err error
	if serviceFile == "" {
		if serviceFile, err = xdg.ServiceFile(); err != nil {
			return nil, oops.Code(CodeSourceUnavailable).With("source", "services").Wrap(err)
		}
	}
	if passFile == "" {
		if passFile, err = xdg.PassFile(); err != nil {
			return nil, oops.Code(CodeSourceUnavailable).With("source", "passwords").Wrap(err)
		}
	}
	return NewResolver(FileSource(serviceFile), FileSource(passFile)), nil
}

// Resolve resolves serviceName against the bound sources.
func (r *Resolver) Resolve(serviceName string) (Credential, error) {
	return Resolve(serviceName, r.services, r.passwords)
}

// Services lists the service names in the bound service source.
func (r *Resolver) Services() ([]string, error) {
	return Services(r.services)
}

// ResolveDefault resolves serviceName from ~/.pg_service.conf and ~/.pgpass.
func ResolveDefault(serviceName string) (Credential, error) {
	r, err := NewFileResolver("", "")
	if err != nil {
		return Credential{}, err
	}
	return r.Resolve(serviceName)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credential

import "github.com/holomush/pgcreds/pkg/errutil"

// Error codes attached to resolution failures.
const (
	// CodeSourceUnavailable: a service or password source could not be opened or read.
	CodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	// CodeServiceNotFound: the service section is absent or has no key/value lines.
	CodeServiceNotFound = "SERVICE_NOT_FOUND"
	// CodePasswordNotFound: no password record matched host, port, dbname and user.
	CodePasswordNotFound = "PASSWORD_NOT_FOUND"
	// CodeFieldMissing: the section lacks host, port, dbname or user.
	CodeFieldMissing = "SERVICE_FIELD_MISSING"
	// CodePortInvalid: the port value is not an integer.
	CodePortInvalid = "SERVICE_PORT_INVALID"
	// CodeSSLModeInvalid: the sslmode value is not a known mode. Returned when
	// the credential is used, never by Resolve.
	CodeSSLModeInvalid = "SERVICE_SSLMODE_INVALID"
)

// IsResolutionError reports whether err means the files were readable but
// did not yield a credential for the requested service.
func IsResolutionError(err error) bool {
	return errutil.HasCode(err, CodeServiceNotFound, CodePasswordNotFound, CodePortInvalid)
}

// IsSourceUnavailable reports whether err came from an unreadable source.
func IsSourceUnavailable(err error) bool {
	return errutil.HasCode(err, CodeSourceUnavailable)
}

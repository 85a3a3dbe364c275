// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credential

import (
	"github.com/samber/oops"

	"github.com/holomush/pgcreds/internal/dbenum"
)

// SSLMode is the libpq sslmode of a service. The zero value means the
// service did not set one.
type SSLMode int

// SSL modes.
const (
	SSLModeUnset SSLMode = iota
	SSLModeDisable
	SSLModeAllow
	SSLModePrefer
	SSLModeRequire
	SSLModeVerifyCA
	SSLModeVerifyFull
)

var sslModes = dbenum.New("sslmode",
	dbenum.Entry[SSLMode]{Value: SSLModeDisable, Code: "disable"},
	dbenum.Entry[SSLMode]{Value: SSLModeAllow, Code: "allow"},
	dbenum.Entry[SSLMode]{Value: SSLModePrefer, Code: "prefer"},
	dbenum.Entry[SSLMode]{Value: SSLModeRequire, Code: "require"},
	dbenum.Entry[SSLMode]{Value: SSLModeVerifyCA, Code: "verify-ca"},
	dbenum.Entry[SSLMode]{Value: SSLModeVerifyFull, Code: "verify-full"},
)

// ParseSSLMode returns the mode for a libpq sslmode code.
func ParseSSLMode(code string) (SSLMode, error) {
	//nolint:wrapcheck // dbenum errors already carry code and context
	return sslModes.Parse(code)
}

// SSLModes returns every settable mode code.
func SSLModes() []string {
	return sslModes.Codes()
}

// String returns the libpq code, or "" when unset.
func (m SSLMode) String() string {
	if m == SSLModeUnset {
		return ""
	}
	code, err := sslModes.Code(m)
	if err != nil {
		return ""
	}
	return code
}

// MarshalText implements encoding.TextMarshaler.
func (m SSLMode) MarshalText() ([]byte, error) {
	if m == SSLModeUnset {
		return []byte{}, nil
	}
	code, err := sslModes.Code(m)
	if err != nil {
		//nolint:wrapcheck // dbenum errors already carry code and context
		return nil, err
	}
	return []byte(code), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SSLMode) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*m = SSLModeUnset
		return nil
	}
	v, err := sslModes.Parse(string(text))
	if err != nil {
		return oops.Code(CodeSSLModeInvalid).
			With("sslmode", string(text)).
			Errorf("unknown sslmode %q", string(text))
	}
	*m = v
	return nil
}

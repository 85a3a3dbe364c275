// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credential

import "strings"

// ParsePasswordEntry splits one password-file line on ":". Missing trailing
// fields are left empty; fields past the fifth are dropped.
func ParsePasswordEntry(line string) PasswordEntry {
	fields := strings.Split(trimCR(line), ":")
	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return PasswordEntry{
		Host:     field(0),
		Port:     field(1),
		DBName:   field(2),
		User:     field(3),
		Password: field(4),
	}
}

// ParsePasswordEntries parses every line, preserving file order.
func ParsePasswordEntries(lines []string) []PasswordEntry {
	entries := make([]PasswordEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, ParsePasswordEntry(line))
	}
	return entries
}

// Matches reports whether each of the first four fields is the wildcard or
// equal to the corresponding argument.
func (e PasswordEntry) Matches(host, port, dbname, user string) bool {
	return fieldMatches(e.Host, host) &&
		fieldMatches(e.Port, port) &&
		fieldMatches(e.DBName, dbname) &&
		fieldMatches(e.User, user)
}

func fieldMatches(field, want string) bool {
	return field == Wildcard || field == want
}

// entryFilter narrows candidates on one field.
type entryFilter struct {
	field func(PasswordEntry) string
	want  string
}

// MatchingEntries returns the entries matching host, port, dbname and user,
// in file order. The four filters run in that fixed order, each over the
// survivors of the previous one.
func MatchingEntries(entries []PasswordEntry, host, port, dbname, user string) []PasswordEntry {
	filters := []entryFilter{
		{field: func(e PasswordEntry) string { return e.Host }, want: host},
		{field: func(e PasswordEntry) string { return e.Port }, want: port},
		{field: func(e PasswordEntry) string { return e.DBName }, want: dbname},
		{field: func(e PasswordEntry) string { return e.User }, want: user},
	}

	candidates := entries
	for _, f := range filters {
		survivors := make([]PasswordEntry, 0, len(candidates))
		for _, e := range candidates {
			if fieldMatches(f.field(e), f.want) {
				survivors = append(survivors, e)
			}
		}
		candidates = survivors
	}
	return candidates
}
